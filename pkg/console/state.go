package console

import (
	"math/big"
	"time"
)

type Operation string

const (
	OperationIssueOne   Operation = "issue_one"
	OperationIssueBatch Operation = "issue_batch"
	OperationLookupOne  Operation = "lookup_one"
	OperationListRange  Operation = "list_range"
)

// Phase is a step of the per-operation state machine:
//
//	Idle -> Validating -> Rejected -> Idle
//	Idle -> Validating -> Submitting -> AwaitingConfirmation -> Completed|Failed -> Idle
//	Idle -> Validating -> Reading -> Completed|Failed -> Idle
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseValidating           Phase = "validating"
	PhaseRejected             Phase = "rejected"
	PhaseSubmitting           Phase = "submitting"
	PhaseReading              Phase = "reading"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseCompleted            Phase = "completed"
	PhaseFailed               Phase = "failed"
)

const (
	OwnerBadgeOwner    = "You are the owner"
	OwnerBadgeNotOwner = "Not owner"
)

type Session struct {
	ConnectedAddress string `json:"connected_address,omitempty"`
	ChainID          uint64 `json:"chain_id,omitempty"`
	ChainLabel       string `json:"chain_label,omitempty"`
	ContractOwner    string `json:"contract_owner,omitempty"`
	IsOwner          bool   `json:"is_owner"`
}

func (s Session) Connected() bool {
	return s.ConnectedAddress != ""
}

// OwnerBadge is empty while disconnected.
func (s Session) OwnerBadge() string {
	if !s.Connected() {
		return ""
	}
	if s.IsOwner {
		return OwnerBadgeOwner
	}
	return OwnerBadgeNotOwner
}

type IssueRequest struct {
	Recipient   string `json:"recipient"`
	MetadataURI string `json:"metadata_uri"`
}

// BatchIssueRequest carries the two free-form text blocks of a batch. Entries
// are separated by commas and/or newlines.
type BatchIssueRequest struct {
	RecipientsText string `json:"recipients"`
	URIsText       string `json:"uris"`
}

// MintResult is the outcome of a confirmed issue transaction. MetadataURIs
// are the submitted URIs in input order.
type MintResult struct {
	OperationID     string     `json:"operation_id"`
	TransactionHash string     `json:"transaction_hash"`
	MintedTokenIDs  []*big.Int `json:"minted_token_ids"`
	ExplorerURL     string     `json:"explorer_url"`
	Recipients      []string   `json:"recipients"`
	MetadataURIs    []string   `json:"metadata_uris"`
}

type TokenRecord struct {
	TokenID     *big.Int `json:"token_id"`
	Owner       string   `json:"owner"`
	MetadataURI string   `json:"metadata_uri"`
}

type RangeResult struct {
	OperationID string        `json:"operation_id"`
	From        uint64        `json:"from"`
	To          uint64        `json:"to"`
	Records     []TokenRecord `json:"records"`
}

type OperationStatus struct {
	ID         string     `json:"id"`
	Operation  Operation  `json:"operation"`
	Phase      Phase      `json:"phase"`
	Outcome    Phase      `json:"outcome,omitempty"`
	Message    string     `json:"message,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// State is a snapshot of everything the console displays.
type State struct {
	ContractAddress string                        `json:"contract_address"`
	ContractURL     string                        `json:"contract_url"`
	Session         Session                       `json:"session"`
	OwnerBadge      string                        `json:"owner_badge,omitempty"`
	Status          string                        `json:"status"`
	Operations      map[Operation]OperationStatus `json:"operations"`
	LastIssue       *MintResult                   `json:"last_issue,omitempty"`
	LastBatch       *MintResult                   `json:"last_batch,omitempty"`
	Lookup          *TokenRecord                  `json:"lookup,omitempty"`
	Listed          []TokenRecord                 `json:"listed"`
}

func (s State) clone() State {
	cloned := s
	cloned.Operations = make(map[Operation]OperationStatus, len(s.Operations))
	for key, value := range s.Operations {
		if value.FinishedAt != nil {
			finished := *value.FinishedAt
			value.FinishedAt = &finished
		}
		cloned.Operations[key] = value
	}
	cloned.LastIssue = s.LastIssue.clone()
	cloned.LastBatch = s.LastBatch.clone()
	if s.Lookup != nil {
		record := *s.Lookup
		cloned.Lookup = &record
	}
	cloned.Listed = append([]TokenRecord{}, s.Listed...)
	return cloned
}

func (r *MintResult) clone() *MintResult {
	if r == nil {
		return nil
	}
	cloned := *r
	cloned.MintedTokenIDs = append([]*big.Int(nil), r.MintedTokenIDs...)
	cloned.Recipients = append([]string(nil), r.Recipients...)
	cloned.MetadataURIs = append([]string(nil), r.MetadataURIs...)
	return &cloned
}
