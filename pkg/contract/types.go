package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Log is one entry emitted by a transaction.
type Log struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    []byte         `json:"data"`
}

// Receipt is the confirmed outcome of a write call.
type Receipt struct {
	TransactionHash string `json:"transaction_hash"`
	BlockNumber     uint64 `json:"block_number,omitempty"`
	Status          uint64 `json:"status"`
	Logs            []Log  `json:"logs"`
}

// PendingTx is a submitted write call.
type PendingTx interface {
	Hash() string
	Wait(ctx context.Context) (*Receipt, error)
}

// Caller performs the read-only calls of the credential contract.
type Caller interface {
	Owner(ctx context.Context) (common.Address, error)
	OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error)
	TokenURI(ctx context.Context, tokenID *big.Int) (string, error)
}

// Transactor performs the owner-only issue calls.
type Transactor interface {
	IssueCredential(ctx context.Context, recipient common.Address, uri string) (PendingTx, error)
	IssueBatchCredentials(ctx context.Context, recipients []common.Address, uris []string) (PendingTx, error)
}

// Signer signs transactions on behalf of an account it controls.
type Signer interface {
	SignTx(ctx context.Context, account common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}
