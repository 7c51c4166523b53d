package shared

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

const (
	ChainIDEthereum      uint64 = 1
	ChainIDSepolia       uint64 = 11155111
	ChainIDBaseSepolia   uint64 = 84532
	ChainIDHederaMainnet uint64 = 295
	ChainIDHederaTestnet uint64 = 296
)

// DefaultExplorerURL is used for chains without a registered explorer.
const DefaultExplorerURL = "https://etherscan.io"

// Chain describes how a chain id is presented to users.
type Chain struct {
	ID            uint64 `json:"id" yaml:"id"`
	Label         string `json:"label" yaml:"label"`
	ExplorerURL   string `json:"explorer_url" yaml:"explorer_url"`
	HederaNetwork string `json:"hedera_network,omitempty" yaml:"hedera_network,omitempty"`
}

// TxURL returns the explorer page of a transaction.
func (c Chain) TxURL(hash string) string {
	return fmt.Sprintf("%s/tx/%s", c.explorer(), strings.TrimSpace(hash))
}

// AddressURL returns the explorer page of an account or contract.
func (c Chain) AddressURL(address string) string {
	return fmt.Sprintf("%s/address/%s", c.explorer(), strings.TrimSpace(address))
}

func (c Chain) explorer() string {
	base := strings.TrimRight(strings.TrimSpace(c.ExplorerURL), "/")
	if base == "" {
		return DefaultExplorerURL
	}
	return base
}

// ChainRegistry maps chain ids to their presentation. Unknown ids resolve to
// a generic entry pointing at DefaultExplorerURL.
type ChainRegistry struct {
	mutex  sync.RWMutex
	chains map[uint64]Chain
}

// DefaultChains returns a registry with the networks the credential contract
// is commonly deployed on.
func DefaultChains() *ChainRegistry {
	return NewChainRegistry(
		Chain{ID: ChainIDEthereum, Label: "Ethereum", ExplorerURL: "https://etherscan.io"},
		Chain{ID: ChainIDSepolia, Label: "Sepolia", ExplorerURL: "https://sepolia.etherscan.io"},
		Chain{ID: ChainIDBaseSepolia, Label: "Base Sepolia", ExplorerURL: "https://sepolia.basescan.org"},
		Chain{
			ID:            ChainIDHederaMainnet,
			Label:         "Hedera Mainnet",
			ExplorerURL:   "https://hashscan.io/mainnet",
			HederaNetwork: NetworkMainnet,
		},
		Chain{
			ID:            ChainIDHederaTestnet,
			Label:         "Hedera Testnet",
			ExplorerURL:   "https://hashscan.io/testnet",
			HederaNetwork: NetworkTestnet,
		},
	)
}

// NewChainRegistry creates a registry holding the given chains.
func NewChainRegistry(chains ...Chain) *ChainRegistry {
	registry := &ChainRegistry{chains: make(map[uint64]Chain, len(chains))}
	for _, chain := range chains {
		registry.Register(chain)
	}
	return registry
}

// Register adds or replaces a chain.
func (r *ChainRegistry) Register(chain Chain) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.chains[chain.ID] = chain
}

// Known reports whether the chain id has an explicit entry.
func (r *ChainRegistry) Known(chainID uint64) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, ok := r.chains[chainID]
	return ok
}

// Lookup returns the entry for chainID, falling back to a generic one.
func (r *ChainRegistry) Lookup(chainID uint64) Chain {
	r.mutex.RLock()
	chain, ok := r.chains[chainID]
	r.mutex.RUnlock()
	if ok {
		if strings.TrimSpace(chain.Label) == "" {
			chain.Label = fmt.Sprintf("Chain %d", chainID)
		}
		return chain
	}
	return Chain{
		ID:          chainID,
		Label:       fmt.Sprintf("Chain %d", chainID),
		ExplorerURL: DefaultExplorerURL,
	}
}

// Chains returns the registered entries ordered by id.
func (r *ChainRegistry) Chains() []Chain {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	result := make([]Chain, 0, len(r.chains))
	for _, chain := range r.chains {
		result = append(result, chain)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// NormalizeNetwork normalizes a Hedera network name, defaulting to testnet.
func NormalizeNetwork(network string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(network))
	if normalized == "" {
		return NetworkTestnet, nil
	}

	switch normalized {
	case NetworkMainnet, NetworkTestnet:
		return normalized, nil
	default:
		return "", fmt.Errorf("unsupported network %q", network)
	}
}

// NewHederaClient creates a Hedera SDK client for the named network.
func NewHederaClient(network string) (*hedera.Client, error) {
	normalized, err := NormalizeNetwork(network)
	if err != nil {
		return nil, err
	}

	if normalized == NetworkMainnet {
		return hedera.ClientForMainnet(), nil
	}

	return hedera.ClientForTestnet(), nil
}
