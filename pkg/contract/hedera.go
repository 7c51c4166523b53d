package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/verifychain/credentials-sdk-go/pkg/mirror"
	"github.com/verifychain/credentials-sdk-go/pkg/shared"
)

const defaultHederaGas uint64 = 1_500_000

type HederaConfig struct {
	Network            string
	OperatorAccountID  string
	OperatorPrivateKey string
	ContractAddress    string
	ABI                *abi.ABI
	MirrorBaseURL      string
	MirrorAPIKey       string
	Gas                uint64
	Wait               mirror.WaitOptions
}

// HederaClient binds the contract on Hedera. Writes are ContractExecute
// transactions paid and signed by the operator; reads and results come from
// the mirror node.
type HederaClient struct {
	hederaClient *hedera.Client
	mirrorClient *mirror.Client
	contractID   hedera.ContractID
	address      common.Address
	abi          *abi.ABI
	gas          uint64
	wait         mirror.WaitOptions
	hasOperator  bool
}

// NewHederaClient creates a new HederaClient. The operator is optional; a
// client without one can only read.
func NewHederaClient(config HederaConfig) (*HederaClient, error) {
	network, err := shared.NormalizeNetwork(config.Network)
	if err != nil {
		return nil, err
	}

	address, ok := NormalizeAddress(config.ContractAddress)
	if !ok {
		return nil, fmt.Errorf("invalid contract address %q", config.ContractAddress)
	}
	contractID, err := hedera.ContractIDFromEvmAddress(0, 0, strings.TrimPrefix(strings.ToLower(address.Hex()), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid contract address: %w", err)
	}

	parsed := config.ABI
	if parsed == nil {
		parsed, err = DefaultABI()
		if err != nil {
			return nil, err
		}
	}

	mirrorClient, err := mirror.NewClient(mirror.Config{
		Network: network,
		BaseURL: config.MirrorBaseURL,
		APIKey:  config.MirrorAPIKey,
	})
	if err != nil {
		return nil, err
	}

	hederaClient, err := shared.NewHederaClient(network)
	if err != nil {
		return nil, err
	}

	accountID := strings.TrimSpace(config.OperatorAccountID)
	privateKey := strings.TrimSpace(config.OperatorPrivateKey)
	if accountID != "" || privateKey != "" {
		if accountID == "" {
			return nil, fmt.Errorf("operator account ID is required")
		}
		if privateKey == "" {
			return nil, fmt.Errorf("operator private key is required")
		}
		operatorID, err := hedera.AccountIDFromString(accountID)
		if err != nil {
			return nil, fmt.Errorf("invalid operator account ID: %w", err)
		}
		operatorKey, err := shared.ParsePrivateKey(privateKey)
		if err != nil {
			return nil, err
		}
		hederaClient.SetOperator(operatorID, operatorKey)
	}
	hasOperator := accountID != ""

	gas := config.Gas
	if gas == 0 {
		gas = defaultHederaGas
	}

	return &HederaClient{
		hederaClient: hederaClient,
		mirrorClient: mirrorClient,
		contractID:   contractID,
		address:      address,
		abi:          parsed,
		gas:          gas,
		wait:         config.Wait,
		hasOperator:  hasOperator,
	}, nil
}

// MirrorClient returns the configured mirror node client.
func (c *HederaClient) MirrorClient() *mirror.Client {
	return c.mirrorClient
}

// Address returns the bound contract address.
func (c *HederaClient) Address() common.Address {
	return c.address
}

// Owner returns the contract's recorded owner.
func (c *HederaClient) Owner(ctx context.Context) (common.Address, error) {
	values, err := c.call(ctx, MethodOwner)
	if err != nil {
		return common.Address{}, err
	}
	return unpackAddress(MethodOwner, values)
}

// OwnerOf returns the holder of tokenID.
func (c *HederaClient) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	values, err := c.call(ctx, MethodOwnerOf, tokenID)
	if err != nil {
		return common.Address{}, err
	}
	return unpackAddress(MethodOwnerOf, values)
}

// TokenURI returns the metadata URI of tokenID.
func (c *HederaClient) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	values, err := c.call(ctx, MethodTokenURI, tokenID)
	if err != nil {
		return "", err
	}
	return unpackString(MethodTokenURI, values)
}

// IssueCredential submits issueCredential(recipient, uri).
func (c *HederaClient) IssueCredential(
	ctx context.Context,
	recipient common.Address,
	uri string,
) (PendingTx, error) {
	return c.execute(ctx, MethodIssueCredential, recipient, uri)
}

// IssueBatchCredentials submits issueBatchCredentials(recipients, uris).
func (c *HederaClient) IssueBatchCredentials(
	ctx context.Context,
	recipients []common.Address,
	uris []string,
) (PendingTx, error) {
	return c.execute(ctx, MethodIssueBatchCredentials, recipients, uris)
}

func (c *HederaClient) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}

	result, err := c.mirrorClient.CallContract(ctx, mirror.ContractCallRequest{
		To:   c.address.Hex(),
		Data: hexutil.Encode(data),
	})
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}

	output, err := hexutil.Decode(result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
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

func (c *HederaClient) execute(ctx context.Context, method string, args ...any) (PendingTx, error) {
	if !c.hasOperator {
		return nil, ErrNoSigner
	}

	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}

	response, err := hedera.NewContractExecuteTransaction().
		SetContractID(c.contractID).
		SetGas(c.gas).
		SetFunctionParameters(data).
		Execute(c.hederaClient)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s transaction: %w", method, err)
	}

	return &hederaPendingTx{
		client:        c,
		transactionID: response.TransactionID.String(),
		receipt: func() (hedera.TransactionReceipt, error) {
			return response.GetReceipt(c.hederaClient)
		},
	}, nil
}

type hederaPendingTx struct {
	client        *HederaClient
	transactionID string
	// receipt blocks until the network reports the transaction receipt.
	receipt func() (hedera.TransactionReceipt, error)
}

type receiptOutcome struct {
	receipt hedera.TransactionReceipt
	err     error
}

func (p *hederaPendingTx) Hash() string {
	return p.transactionID
}

// Wait blocks for the consensus receipt, then reads the contract result from
// the mirror node. A failed status is reported with the revert reason the
// mirror node recorded when it has one.
func (p *hederaPendingTx) Wait(ctx context.Context) (*Receipt, error) {
	done := make(chan receiptOutcome, 1)
	go func() {
		receipt, err := p.receipt()
		done <- receiptOutcome{receipt: receipt, err: err}
	}()

	var outcome receiptOutcome
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case outcome = <-done:
	}

	status := outcome.receipt.Status
	if outcome.err != nil {
		failedStatus, ok := receiptStatus(outcome.err)
		if !ok {
			return nil, fmt.Errorf("failed to retrieve receipt for %s: %w", p.transactionID, outcome.err)
		}
		status = failedStatus
	}
	if status != hedera.StatusSuccess {
		return nil, p.failure(ctx, status)
	}

	result, err := p.client.mirrorClient.WaitForContractResult(ctx, p.transactionID, p.client.wait)
	if err != nil {
		return nil, err
	}

	return receiptFromMirror(p.transactionID, result)
}

func (p *hederaPendingTx) failure(ctx context.Context, status hedera.Status) error {
	fallback := &RevertError{Reason: fmt.Sprintf("transaction %s failed with status %s", p.transactionID, status.String())}

	result, err := p.client.mirrorClient.WaitForContractResult(ctx, p.transactionID, p.client.wait)
	if err != nil {
		return fallback
	}
	revertErr := mirrorRevert(result.ErrorMessage)
	if revertErr.Reason == "" {
		fallback.Data = revertErr.Data
		return fallback
	}
	return revertErr
}

func receiptStatus(err error) (hedera.Status, bool) {
	var statusErr hedera.ErrHederaReceiptStatus
	if errors.As(err, &statusErr) {
		return statusErr.Status, true
	}
	return 0, false
}

// mirrorRevert interprets a mirror node error_message, which is either ABI
// encoded revert data or plain text.
func mirrorRevert(message string) *RevertError {
	trimmed := strings.TrimSpace(message)
	if raw, err := hexutil.Decode(trimmed); err == nil {
		if reason, ok := DecodeRevert(raw); ok {
			return &RevertError{Reason: reason, Data: raw}
		}
		return &RevertError{Data: raw}
	}
	return &RevertError{Reason: trimmed}
}

func receiptFromMirror(transactionID string, result *mirror.ContractResult) (*Receipt, error) {
	receipt := &Receipt{
		TransactionHash: transactionID,
		BlockNumber:     result.BlockNumber,
		Logs:            make([]Log, 0, len(result.Logs)),
	}
	if strings.TrimSpace(result.Hash) != "" {
		receipt.TransactionHash = result.Hash
	}

	for _, entry := range result.Logs {
		if !common.IsHexAddress(entry.Address) {
			continue
		}
		topics := make([]common.Hash, 0, len(entry.Topics))
		for _, topic := range entry.Topics {
			topics = append(topics, common.HexToHash(topic))
		}
		data, err := hexutil.Decode(entry.Data)
		if err != nil {
			data = nil
		}
		receipt.Logs = append(receipt.Logs, Log{
			Address: common.HexToAddress(entry.Address),
			Topics:  topics,
			Data:    data,
		})
	}

	if !result.Succeeded() {
		return receipt, mirrorRevert(result.ErrorMessage)
	}
	receipt.Status = 1
	return receipt, nil
}
