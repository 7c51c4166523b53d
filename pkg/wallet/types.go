package wallet

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrUserRejected is returned when the account holder declines a request.
	ErrUserRejected = errors.New("user rejected the request")

	ErrUnauthorized   = errors.New("account access has not been granted")
	ErrUnknownAccount = errors.New("account is not managed by this provider")
	ErrNoAccounts     = errors.New("provider has no accounts")
	ErrClosed         = errors.New("provider is closed")
)

type EventKind string

const (
	EventAccountsChanged EventKind = "accountsChanged"
	EventChainChanged    EventKind = "chainChanged"
)

// Event is a notification pushed by the provider. Accounts is set for
// EventAccountsChanged (empty means the holder disconnected); ChainID is set
// for EventChainChanged.
type Event struct {
	Kind     EventKind        `json:"kind"`
	Accounts []common.Address `json:"accounts,omitempty"`
	ChainID  uint64           `json:"chain_id,omitempty"`
}

// Provider is an account provider in the style of an injected browser wallet.
type Provider interface {
	// RequestAccounts asks the holder for access and returns the authorized
	// accounts, the active one first.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	ChainID(ctx context.Context) (uint64, error)
	SignTx(ctx context.Context, account common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
	Events() <-chan Event
}

// ApprovalFunc decides whether an access request is granted.
type ApprovalFunc func(ctx context.Context, accounts []common.Address) bool
