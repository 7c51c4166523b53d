package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/verifychain/credentials-sdk-go/pkg/shared"
)

const defaultEventBuffer = 16

type KeyedProviderConfig struct {
	ChainID uint64
	Keys    []*ecdsa.PrivateKey
	// Approve gates RequestAccounts. Nil grants every request.
	Approve     ApprovalFunc
	EventBuffer int
}

// KeyedProvider holds private keys in memory and signs locally. Events are
// buffered; when the buffer is full new events are dropped.
type KeyedProvider struct {
	mu         sync.RWMutex
	keys       map[common.Address]*ecdsa.PrivateKey
	accounts   []common.Address
	chainID    uint64
	approve    ApprovalFunc
	authorized bool
	closed     bool
	events     chan Event
}

// NewKeyedProvider creates a provider over config.Keys. The first key is the
// active account.
func NewKeyedProvider(config KeyedProviderConfig) (*KeyedProvider, error) {
	if config.ChainID == 0 {
		return nil, fmt.Errorf("chain ID is required")
	}
	if len(config.Keys) == 0 {
		return nil, ErrNoAccounts
	}

	buffer := config.EventBuffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}

	provider := &KeyedProvider{
		keys:    make(map[common.Address]*ecdsa.PrivateKey, len(config.Keys)),
		chainID: config.ChainID,
		approve: config.Approve,
		events:  make(chan Event, buffer),
	}
	for _, key := range config.Keys {
		if key == nil {
			return nil, fmt.Errorf("private key cannot be nil")
		}
		address := crypto.PubkeyToAddress(key.PublicKey)
		if _, exists := provider.keys[address]; exists {
			continue
		}
		provider.keys[address] = key
		provider.accounts = append(provider.accounts, address)
	}

	return provider, nil
}

// NewKeyedProviderFromHex parses hex private keys (with or without 0x).
func NewKeyedProviderFromHex(chainID uint64, hexKeys ...string) (*KeyedProvider, error) {
	keys := make([]*ecdsa.PrivateKey, 0, len(hexKeys))
	for _, raw := range hexKeys {
		key, err := shared.ParseECDSAKey(raw)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return NewKeyedProvider(KeyedProviderConfig{ChainID: chainID, Keys: keys})
}

func (p *KeyedProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrClosed
	}
	accounts := append([]common.Address(nil), p.accounts...)
	approve := p.approve
	p.mu.RUnlock()

	if approve != nil && !approve(ctx, accounts) {
		return nil, ErrUserRejected
	}

	p.mu.Lock()
	p.authorized = true
	p.mu.Unlock()
	return accounts, nil
}

// Accounts returns the authorized accounts without prompting. It is empty
// until RequestAccounts succeeds.
func (p *KeyedProvider) Accounts() []common.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.authorized {
		return nil
	}
	return append([]common.Address(nil), p.accounts...)
}

func (p *KeyedProvider) ChainID(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return 0, ErrClosed
	}
	return p.chainID, nil
}

func (p *KeyedProvider) SignTx(
	ctx context.Context,
	account common.Address,
	tx *types.Transaction,
	chainID *big.Int,
) (*types.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}
	if !p.authorized {
		return nil, ErrUnauthorized
	}
	key, ok := p.keys[account]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account.Hex())
	}
	if chainID == nil || chainID.Uint64() != p.chainID {
		return nil, fmt.Errorf("transaction chain %v does not match provider chain %d", chainID, p.chainID)
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

func (p *KeyedProvider) Events() <-chan Event {
	return p.events
}

// SwitchAccount makes account the active one and notifies subscribers.
func (p *KeyedProvider) SwitchAccount(account common.Address) error {
	p.mu.Lock()
	if _, ok := p.keys[account]; !ok {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownAccount, account.Hex())
	}
	reordered := []common.Address{account}
	for _, candidate := range p.accounts {
		if candidate != account {
			reordered = append(reordered, candidate)
		}
	}
	p.accounts = reordered
	authorized := p.authorized
	accounts := append([]common.Address(nil), reordered...)
	p.mu.Unlock()

	if authorized {
		p.emit(Event{Kind: EventAccountsChanged, Accounts: accounts})
	}
	return nil
}

// SwitchChain changes the active chain and notifies subscribers.
func (p *KeyedProvider) SwitchChain(chainID uint64) error {
	if chainID == 0 {
		return fmt.Errorf("chain ID is required")
	}
	p.mu.Lock()
	changed := p.chainID != chainID
	p.chainID = chainID
	p.mu.Unlock()

	if changed {
		p.emit(Event{Kind: EventChainChanged, ChainID: chainID})
	}
	return nil
}

// Revoke withdraws account access, as when the holder disconnects the site
// from the wallet. Subscribers see an empty accountsChanged event.
func (p *KeyedProvider) Revoke() {
	p.mu.Lock()
	wasAuthorized := p.authorized
	p.authorized = false
	p.mu.Unlock()

	if wasAuthorized {
		p.emit(Event{Kind: EventAccountsChanged, Accounts: []common.Address{}})
	}
}

// Close stops event delivery. The events channel is closed.
func (p *KeyedProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.events)
}

func (p *KeyedProvider) emit(event Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.events <- event:
	default:
	}
}
