package metadata

import "encoding/json"

// Document is the ERC-721 metadata JSON a token URI points at.
type Document struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
	ExternalURL string          `json:"external_url,omitempty"`
	Attributes  []Attribute     `json:"attributes,omitempty"`
	Raw         json.RawMessage `json:"-"`
}

type Attribute struct {
	TraitType   string `json:"trait_type,omitempty"`
	DisplayType string `json:"display_type,omitempty"`
	Value       any    `json:"value"`
}
