package console

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/verifychain/credentials-sdk-go/pkg/contract"
	"github.com/verifychain/credentials-sdk-go/pkg/shared"
	"github.com/verifychain/credentials-sdk-go/pkg/wallet"
)

// TransactorFunc binds the write calls to the connected account.
type TransactorFunc func(ctx context.Context, account common.Address, chainID uint64) (contract.Transactor, error)

// SignerTransactor returns a TransactorFunc that signs EVM transactions
// through signer, normally the wallet provider.
func SignerTransactor(client *contract.EVMClient, signer contract.Signer) TransactorFunc {
	return func(_ context.Context, account common.Address, chainID uint64) (contract.Transactor, error) {
		if chainID == 0 {
			return nil, fmt.Errorf("chain ID is unknown")
		}
		return client.WithSigner(account, new(big.Int).SetUint64(chainID), signer), nil
	}
}

// StaticTransactor returns a TransactorFunc that ignores the session, for
// backends that pay and sign with a fixed operator.
func StaticTransactor(transactor contract.Transactor) TransactorFunc {
	return func(context.Context, common.Address, uint64) (contract.Transactor, error) {
		return transactor, nil
	}
}

type Config struct {
	ContractAddress common.Address
	Caller          contract.Caller
	Transactor      TransactorFunc
	// Provider is optional; without one the console is read-only.
	Provider     wallet.Provider
	Chains       *shared.ChainRegistry
	MaxRangeSpan uint64
	Logger       *zerolog.Logger
	Metrics      *Metrics
}

type Console struct {
	contractAddress common.Address
	caller          contract.Caller
	transactor      TransactorFunc
	provider        wallet.Provider
	chains          *shared.ChainRegistry
	maxRangeSpan    uint64
	logger          zerolog.Logger
	metrics         *Metrics
	now             func() time.Time

	mu    sync.RWMutex
	state State
}

// New creates a new Console.
func New(config Config) (*Console, error) {
	if config.Caller == nil {
		return nil, fmt.Errorf("contract caller is required")
	}
	if config.ContractAddress == (common.Address{}) {
		return nil, fmt.Errorf("contract address is required")
	}

	chains := config.Chains
	if chains == nil {
		chains = shared.DefaultChains()
	}
	maxRangeSpan := config.MaxRangeSpan
	if maxRangeSpan == 0 {
		maxRangeSpan = shared.DefaultMaxRangeSpan
	}
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &Console{
		contractAddress: config.ContractAddress,
		caller:          config.Caller,
		transactor:      config.Transactor,
		provider:        config.Provider,
		chains:          chains,
		maxRangeSpan:    maxRangeSpan,
		logger:          logger.With().Str("contract", config.ContractAddress.Hex()).Logger(),
		metrics:         config.Metrics,
		now:             time.Now,
		state: State{
			ContractAddress: config.ContractAddress.Hex(),
			Operations:      make(map[Operation]OperationStatus),
			Listed:          []TokenRecord{},
		},
	}, nil
}

func (c *Console) ContractAddress() common.Address {
	return c.contractAddress
}

func (c *Console) MaxRangeSpan() uint64 {
	return c.maxRangeSpan
}

// State returns a copy of the current state with presentation fields
// resolved against the chain registry.
func (c *Console) State() State {
	c.mu.RLock()
	snapshot := c.state.clone()
	c.mu.RUnlock()

	chain := c.chains.Lookup(snapshot.Session.ChainID)
	if snapshot.Session.ChainID != 0 {
		snapshot.Session.ChainLabel = chain.Label
	}
	snapshot.ContractURL = chain.AddressURL(snapshot.ContractAddress)
	snapshot.OwnerBadge = snapshot.Session.OwnerBadge()
	return snapshot
}

// Session returns the current session.
func (c *Console) Session() Session {
	return c.State().Session
}

// Status returns the shared status line.
func (c *Console) Status() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Status
}

func (c *Console) setStatus(status string) {
	c.mu.Lock()
	c.state.Status = status
	c.mu.Unlock()
}

func (c *Console) explorerTxURL(chainID uint64, hash string) string {
	return c.chains.Lookup(chainID).TxURL(hash)
}
