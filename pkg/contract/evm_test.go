package contract

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const testSignerKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

var testContractAddress = common.HexToAddress("0xA55D3D557332d196D3C7E813b0f9D6ec355Fe230")

type fakeEVMBackend struct {
	mu            sync.Mutex
	owner         common.Address
	tokenOwners   map[int64]common.Address
	tokenURIs     map[int64]string
	callErr       error
	sent          []*types.Transaction
	estimated     []ethereum.CallMsg
	receiptMisses int
	receipt       *types.Receipt
}

func (b *fakeEVMBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if b.callErr != nil {
		return nil, b.callErr
	}
	parsed, err := DefaultABI()
	if err != nil {
		return nil, err
	}
	selector := call.Data[:4]
	switch {
	case bytes.Equal(selector, parsed.Methods[MethodOwner].ID):
		return parsed.Methods[MethodOwner].Outputs.Pack(b.owner)
	case bytes.Equal(selector, parsed.Methods[MethodOwnerOf].ID):
		tokenID := new(big.Int).SetBytes(call.Data[4:36]).Int64()
		holder, ok := b.tokenOwners[tokenID]
		if !ok {
			return nil, &RevertError{Reason: "ERC721NonexistentToken(" + big.NewInt(tokenID).String() + ")"}
		}
		return parsed.Methods[MethodOwnerOf].Outputs.Pack(holder)
	case bytes.Equal(selector, parsed.Methods[MethodTokenURI].ID):
		tokenID := new(big.Int).SetBytes(call.Data[4:36]).Int64()
		return parsed.Methods[MethodTokenURI].Outputs.Pack(b.tokenURIs[tokenID])
	}
	return nil, nil
}

func (b *fakeEVMBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 7, nil
}

func (b *fakeEVMBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(2), nil
}

func (b *fakeEVMBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100), BaseFee: big.NewInt(10)}, nil
}

func (b *fakeEVMBackend) EstimateGas(_ context.Context, call ethereum.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.estimated = append(b.estimated, call)
	return 100_000, nil
}

func (b *fakeEVMBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeEVMBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.receiptMisses > 0 {
		b.receiptMisses--
		return nil, ethereum.NotFound
	}
	if b.receipt == nil {
		return nil, ethereum.NotFound
	}
	receipt := *b.receipt
	receipt.TxHash = hash
	return &receipt, nil
}

type keySigner struct {
	key *ecdsa.PrivateKey
}

func (s keySigner) SignTx(_ context.Context, _ common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

func newTestEVMClient(t *testing.T, backend *fakeEVMBackend) *EVMClient {
	t.Helper()
	client, err := NewEVMClient(EVMConfig{
		Address: testContractAddress,
		Backend: backend,
		Wait:    WaitOptions{Interval: time.Millisecond, MaxAttempts: 5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client
}

func TestNewEVMClientValidation(t *testing.T) {
	if _, err := NewEVMClient(EVMConfig{Address: testContractAddress}); err == nil {
		t.Fatal("expected missing backend to fail")
	}
	if _, err := NewEVMClient(EVMConfig{Backend: &fakeEVMBackend{}}); err == nil {
		t.Fatal("expected missing address to fail")
	}
}

func TestEVMClientReads(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	holder := common.HexToAddress("0x2222222222222222222222222222222222222222")
	backend := &fakeEVMBackend{
		owner:       owner,
		tokenOwners: map[int64]common.Address{3: holder},
		tokenURIs:   map[int64]string{3: "ipfs://cred-3"},
	}
	client := newTestEVMClient(t, backend)
	ctx := context.Background()

	gotOwner, err := client.Owner(ctx)
	if err != nil || gotOwner != owner {
		t.Fatalf("unexpected owner: %s %v", gotOwner.Hex(), err)
	}

	gotHolder, err := client.OwnerOf(ctx, big.NewInt(3))
	if err != nil || gotHolder != holder {
		t.Fatalf("unexpected holder: %s %v", gotHolder.Hex(), err)
	}

	uri, err := client.TokenURI(ctx, big.NewInt(3))
	if err != nil || uri != "ipfs://cred-3" {
		t.Fatalf("unexpected uri: %q %v", uri, err)
	}

	_, err = client.OwnerOf(ctx, big.NewInt(4))
	if !IsTokenNotFound(err) {
		t.Fatalf("expected nonexistent token error, got %v", err)
	}
}

func TestEVMClientEmptyResult(t *testing.T) {
	client, err := NewEVMClient(EVMConfig{
		Address: testContractAddress,
		Backend: emptyBackend{fakeEVMBackend: &fakeEVMBackend{}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.Owner(context.Background()); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

type emptyBackend struct {
	*fakeEVMBackend
}

func (emptyBackend) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return []byte{}, nil
}

func TestEVMTransactorIssueCredential(t *testing.T) {
	key, err := crypto.HexToECDSA(testSignerKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")

	backend := &fakeEVMBackend{
		receiptMisses: 2,
		receipt: &types.Receipt{
			Status:      types.ReceiptStatusSuccessful,
			BlockNumber: big.NewInt(101),
			Logs: []*types.Log{{
				Address: testContractAddress,
				Topics: []common.Hash{
					TransferTopic,
					{},
					common.BytesToHash(recipient.Bytes()),
					common.BigToHash(big.NewInt(12)),
				},
			}},
		},
	}
	client := newTestEVMClient(t, backend)
	transactor := client.WithSigner(from, big.NewInt(11155111), keySigner{key: key})

	pending, err := transactor.IssueCredential(context.Background(), recipient, "ipfs://cred")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backend.sent) != 1 {
		t.Fatalf("expected one transaction, got %d", len(backend.sent))
	}
	sent := backend.sent[0]
	if pending.Hash() != sent.Hash().Hex() {
		t.Fatalf("pending hash %s does not match sent %s", pending.Hash(), sent.Hash().Hex())
	}
	if sent.Nonce() != 7 || sent.Gas() != 120_000 {
		t.Fatalf("unexpected nonce/gas: %d/%d", sent.Nonce(), sent.Gas())
	}
	if sent.GasFeeCap().Int64() != 22 || sent.GasTipCap().Int64() != 2 {
		t.Fatalf("unexpected fee caps: %s/%s", sent.GasFeeCap(), sent.GasTipCap())
	}
	if sent.To() == nil || *sent.To() != testContractAddress {
		t.Fatal("expected transaction to target the contract")
	}
	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(11155111)), sent)
	if err != nil || sender != from {
		t.Fatalf("unexpected sender: %s %v", sender.Hex(), err)
	}
	if backend.estimated[0].From != from {
		t.Fatal("expected gas estimation from the signing account")
	}

	receipt, err := pending.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected wait error: %v", err)
	}
	if receipt.BlockNumber != 101 || receipt.Status != 1 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	ids := MintedTokenIDs(testContractAddress, receipt.Logs)
	if len(ids) != 1 || ids[0].Int64() != 12 {
		t.Fatalf("unexpected minted ids: %v", ids)
	}
}

func TestEVMTransactorWithoutSigner(t *testing.T) {
	client := newTestEVMClient(t, &fakeEVMBackend{})
	transactor := client.WithSigner(common.Address{}, big.NewInt(1), nil)
	_, err := transactor.IssueBatchCredentials(context.Background(), nil, nil)
	if !errors.Is(err, ErrNoSigner) {
		t.Fatalf("expected ErrNoSigner, got %v", err)
	}
}

func TestEVMPendingTxWaitLimits(t *testing.T) {
	backend := &fakeEVMBackend{}
	pending := &evmPendingTx{
		hash:    common.HexToHash("0x01"),
		backend: backend,
		wait:    WaitOptions{Interval: time.Millisecond, MaxAttempts: 3},
	}
	if _, err := pending.Wait(context.Background()); err == nil {
		t.Fatal("expected wait to give up after max attempts")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pending.wait = WaitOptions{Interval: time.Hour}
	if _, err := pending.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestConvertReceiptReverted(t *testing.T) {
	receipt, err := convertReceipt(&types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(5)})
	var revertErr *RevertError
	if !errors.As(err, &revertErr) {
		t.Fatalf("expected RevertError, got %v", err)
	}
	if receipt == nil || receipt.Status != 0 {
		t.Fatalf("expected failed receipt to be returned, got %+v", receipt)
	}
}
