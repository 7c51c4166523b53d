package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EVMBackend is the subset of *ethclient.Client used by EVMClient.
type EVMBackend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// WaitOptions controls receipt polling. A zero MaxAttempts polls until the
// context is done.
type WaitOptions struct {
	MaxAttempts int
	Interval    time.Duration
}

const defaultWaitInterval = 2 * time.Second

func (o WaitOptions) interval() time.Duration {
	if o.Interval <= 0 {
		return defaultWaitInterval
	}
	return o.Interval
}

type EVMConfig struct {
	Address common.Address
	Backend EVMBackend
	ABI     *abi.ABI
	Wait    WaitOptions
}

// EVMClient is a read binding of the contract over JSON-RPC.
type EVMClient struct {
	address common.Address
	backend EVMBackend
	abi     *abi.ABI
	wait    WaitOptions
}

// NewEVMClient creates a new EVMClient.
func NewEVMClient(config EVMConfig) (*EVMClient, error) {
	if config.Backend == nil {
		return nil, fmt.Errorf("EVM backend is required")
	}
	if config.Address == (common.Address{}) {
		return nil, fmt.Errorf("contract address is required")
	}

	parsed := config.ABI
	if parsed == nil {
		defaultParsed, err := DefaultABI()
		if err != nil {
			return nil, err
		}
		parsed = defaultParsed
	}

	return &EVMClient{
		address: config.Address,
		backend: config.Backend,
		abi:     parsed,
		wait:    config.Wait,
	}, nil
}

// Address returns the bound contract address.
func (c *EVMClient) Address() common.Address {
	return c.address
}

// Owner returns the contract's recorded owner.
func (c *EVMClient) Owner(ctx context.Context) (common.Address, error) {
	values, err := c.call(ctx, MethodOwner)
	if err != nil {
		return common.Address{}, err
	}
	return unpackAddress(MethodOwner, values)
}

// OwnerOf returns the holder of tokenID.
func (c *EVMClient) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	values, err := c.call(ctx, MethodOwnerOf, tokenID)
	if err != nil {
		return common.Address{}, err
	}
	return unpackAddress(MethodOwnerOf, values)
}

// TokenURI returns the metadata URI of tokenID.
func (c *EVMClient) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	values, err := c.call(ctx, MethodTokenURI, tokenID)
	if err != nil {
		return "", err
	}
	return unpackString(MethodTokenURI, values)
}

// WithSigner returns a Transactor sending from account through signer.
func (c *EVMClient) WithSigner(account common.Address, chainID *big.Int, signer Signer) *EVMTransactor {
	return &EVMTransactor{
		client:  c,
		from:    account,
		chainID: new(big.Int).Set(chainID),
		signer:  signer,
	}
}

func (c *EVMClient) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}

	output, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("%s call: %w", method, ErrNoData)
	}

	values, err := c.abi.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return values, nil
}

// EVMTransactor sends the issue calls as EIP-1559 transactions.
type EVMTransactor struct {
	client  *EVMClient
	from    common.Address
	chainID *big.Int
	signer  Signer
}

// IssueCredential submits issueCredential(recipient, uri).
func (t *EVMTransactor) IssueCredential(
	ctx context.Context,
	recipient common.Address,
	uri string,
) (PendingTx, error) {
	return t.transact(ctx, MethodIssueCredential, recipient, uri)
}

// IssueBatchCredentials submits issueBatchCredentials(recipients, uris).
func (t *EVMTransactor) IssueBatchCredentials(
	ctx context.Context,
	recipients []common.Address,
	uris []string,
) (PendingTx, error) {
	return t.transact(ctx, MethodIssueBatchCredentials, recipients, uris)
}

func (t *EVMTransactor) transact(ctx context.Context, method string, args ...any) (PendingTx, error) {
	if t.signer == nil {
		return nil, ErrNoSigner
	}

	data, err := t.client.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}

	backend := t.client.backend
	to := t.client.address

	nonce, err := backend.PendingNonceAt(ctx, t.from)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce: %w", err)
	}
	tipCap, err := backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas tip: %w", err)
	}
	head, err := backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest header: %w", err)
	}
	feeCap := new(big.Int).Set(tipCap)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	gas, err := backend.EstimateGas(ctx, ethereum.CallMsg{
		From: t.from,
		To:   &to,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("%s gas estimation failed: %w", method, err)
	}
	gas += gas / 5

	transaction := types.NewTx(&types.DynamicFeeTx{
		ChainID:   t.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Data:      data,
	})

	signed, err := t.signer.SignTx(ctx, t.from, transaction, t.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s transaction: %w", method, err)
	}
	if err := backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send %s transaction: %w", method, err)
	}

	return &evmPendingTx{
		hash:    signed.Hash(),
		backend: backend,
		wait:    t.client.wait,
	}, nil
}

type evmPendingTx struct {
	hash    common.Hash
	backend EVMBackend
	wait    WaitOptions
}

func (p *evmPendingTx) Hash() string {
	return p.hash.Hex()
}

func (p *evmPendingTx) Wait(ctx context.Context) (*Receipt, error) {
	interval := p.wait.interval()
	for attempt := 1; ; attempt++ {
		receipt, err := p.backend.TransactionReceipt(ctx, p.hash)
		if err == nil && receipt != nil {
			return convertReceipt(receipt)
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to fetch receipt for %s: %w", p.hash.Hex(), err)
		}
		if p.wait.MaxAttempts > 0 && attempt >= p.wait.MaxAttempts {
			return nil, fmt.Errorf("transaction %s not mined after %d attempts", p.hash.Hex(), attempt)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func convertReceipt(receipt *types.Receipt) (*Receipt, error) {
	result := &Receipt{
		TransactionHash: receipt.TxHash.Hex(),
		Status:          receipt.Status,
		Logs:            logsFromTypes(receipt.Logs),
	}
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return result, &RevertError{Reason: fmt.Sprintf("transaction %s reverted", result.TransactionHash)}
	}
	return result, nil
}

func unpackAddress(method string, values []any) (common.Address, error) {
	if len(values) == 0 {
		return common.Address{}, fmt.Errorf("%s returned no values", method)
	}
	address, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s returned %T, expected address", method, values[0])
	}
	return address, nil
}

func unpackString(method string, values []any) (string, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("%s returned no values", method)
	}
	value, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("%s returned %T, expected string", method, values[0])
	}
	return value, nil
}
