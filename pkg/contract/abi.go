package contract

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	MethodOwner                 = "owner"
	MethodOwnerOf               = "ownerOf"
	MethodTokenURI              = "tokenURI"
	MethodIssueCredential       = "issueCredential"
	MethodIssueBatchCredentials = "issueBatchCredentials"
)

//go:embed abi/VerifychainNFT.json
var verifychainABIJSON string

var (
	defaultABIOnce sync.Once
	defaultABI     abi.ABI
	defaultABIErr  error
)

// DefaultABI returns the embedded VerifychainNFT interface description.
func DefaultABI() (*abi.ABI, error) {
	defaultABIOnce.Do(func() {
		defaultABI, defaultABIErr = ParseABI(verifychainABIJSON)
	})
	if defaultABIErr != nil {
		return nil, defaultABIErr
	}
	parsed := defaultABI
	return &parsed, nil
}

// ParseABI parses a JSON interface description and checks that it declares
// every method the console calls.
func ParseABI(document string) (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(document))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	for _, method := range []string{
		MethodOwner,
		MethodOwnerOf,
		MethodTokenURI,
		MethodIssueCredential,
		MethodIssueBatchCredentials,
	} {
		if _, ok := parsed.Methods[method]; !ok {
			return abi.ABI{}, fmt.Errorf("contract ABI is missing method %q", method)
		}
	}

	return parsed, nil
}

// LoadABI reads an interface description from disk. Hardhat and Foundry
// artifacts (objects with an "abi" field) are accepted as well as bare arrays.
func LoadABI(path string) (*abi.ABI, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ABI %s: %w", path, err)
	}

	document, err := extractABIDocument(raw)
	if err != nil {
		return nil, err
	}

	parsed, err := ParseABI(document)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func extractABIDocument(raw []byte) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		return trimmed, nil
	}

	var artifact struct {
		ABI json.RawMessage `json:"abi"`
	}
	if err := json.Unmarshal([]byte(trimmed), &artifact); err != nil {
		return "", fmt.Errorf("failed to decode ABI artifact: %w", err)
	}
	if len(artifact.ABI) == 0 {
		return "", fmt.Errorf("ABI artifact has no abi field")
	}
	return string(artifact.ABI), nil
}
