package console

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/verifychain/credentials-sdk-go/pkg/contract"
	"github.com/verifychain/credentials-sdk-go/pkg/wallet"
)

var (
	testContract = common.HexToAddress("0xA55D3D557332d196D3C7E813b0f9D6ec355Fe230")
	testOwner    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testHolder   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testOther    = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

type fakeToken struct {
	holder common.Address
	uri    string
}

type fakeCaller struct {
	mu       sync.Mutex
	owner    common.Address
	ownerErr error
	tokens   map[int64]fakeToken
	calls    []string
}

func (f *fakeCaller) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeCaller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCaller) Owner(context.Context) (common.Address, error) {
	f.record("owner")
	if f.ownerErr != nil {
		return common.Address{}, f.ownerErr
	}
	return f.owner, nil
}

func (f *fakeCaller) OwnerOf(_ context.Context, tokenID *big.Int) (common.Address, error) {
	f.record("ownerOf:" + tokenID.String())
	token, ok := f.tokens[tokenID.Int64()]
	if !ok {
		return common.Address{}, &contract.RevertError{Reason: "ERC721NonexistentToken(" + tokenID.String() + ")"}
	}
	return token.holder, nil
}

func (f *fakeCaller) TokenURI(_ context.Context, tokenID *big.Int) (string, error) {
	f.record("tokenURI:" + tokenID.String())
	token, ok := f.tokens[tokenID.Int64()]
	if !ok {
		return "", &contract.RevertError{Reason: "ERC721NonexistentToken(" + tokenID.String() + ")"}
	}
	return token.uri, nil
}

type fakePendingTx struct {
	hash    string
	receipt *contract.Receipt
	err     error
}

func (p *fakePendingTx) Hash() string {
	return p.hash
}

func (p *fakePendingTx) Wait(context.Context) (*contract.Receipt, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.receipt, nil
}

type batchCall struct {
	recipients []common.Address
	uris       []string
}

type fakeTransactor struct {
	mu        sync.Mutex
	single    []IssueRequest
	batches   []batchCall
	mintedIDs []int64
	submitErr error
	waitErr   error
	boundFor  []common.Address
}

func (f *fakeTransactor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.single) + len(f.batches)
}

func (f *fakeTransactor) bind(_ context.Context, account common.Address, _ uint64) (contract.Transactor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boundFor = append(f.boundFor, account)
	return f, nil
}

func (f *fakeTransactor) IssueCredential(_ context.Context, recipient common.Address, uri string) (contract.PendingTx, error) {
	f.mu.Lock()
	f.single = append(f.single, IssueRequest{Recipient: recipient.Hex(), MetadataURI: uri})
	f.mu.Unlock()
	return f.pending()
}

func (f *fakeTransactor) IssueBatchCredentials(_ context.Context, recipients []common.Address, uris []string) (contract.PendingTx, error) {
	f.mu.Lock()
	f.batches = append(f.batches, batchCall{recipients: recipients, uris: uris})
	f.mu.Unlock()
	return f.pending()
}

func (f *fakeTransactor) pending() (contract.PendingTx, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &fakePendingTx{
		hash:    "0xfeed",
		receipt: transferReceipt("0xfeed", f.mintedIDs...),
		err:     f.waitErr,
	}, nil
}

// transferReceipt builds a receipt with one Transfer log per id plus an
// unrelated log from another contract.
func transferReceipt(hash string, ids ...int64) *contract.Receipt {
	logs := []contract.Log{{
		Address: testOther,
		Topics:  []common.Hash{contract.TransferTopic, {}, {}, common.BigToHash(big.NewInt(999))},
	}}
	for _, id := range ids {
		logs = append(logs, contract.Log{
			Address: testContract,
			Topics: []common.Hash{
				contract.TransferTopic,
				{},
				common.BytesToHash(testHolder.Bytes()),
				common.BigToHash(big.NewInt(id)),
			},
		})
	}
	return &contract.Receipt{TransactionHash: hash, Status: 1, Logs: logs}
}

var errBoom = errors.New("rpc unavailable")

type fakeProvider struct {
	accounts   []common.Address
	chainID    uint64
	requestErr error
	events     chan wallet.Event
}

func newFakeProvider(accounts ...common.Address) *fakeProvider {
	return &fakeProvider{
		accounts: accounts,
		chainID:  11155111,
		events:   make(chan wallet.Event, 8),
	}
}

func (p *fakeProvider) RequestAccounts(context.Context) ([]common.Address, error) {
	if p.requestErr != nil {
		return nil, p.requestErr
	}
	return p.accounts, nil
}

func (p *fakeProvider) ChainID(context.Context) (uint64, error) {
	return p.chainID, nil
}

func (p *fakeProvider) SignTx(context.Context, common.Address, *types.Transaction, *big.Int) (*types.Transaction, error) {
	return nil, errors.New("not implemented")
}

func (p *fakeProvider) Events() <-chan wallet.Event {
	return p.events
}
