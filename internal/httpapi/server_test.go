package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/verifychain/credentials-sdk-go/pkg/console"
	"github.com/verifychain/credentials-sdk-go/pkg/contract"
	"github.com/verifychain/credentials-sdk-go/pkg/metadata"
	"github.com/verifychain/credentials-sdk-go/pkg/wallet"
)

var (
	contractAddress = common.HexToAddress("0xA55D3D557332d196D3C7E813b0f9D6ec355Fe230")
	ownerAddress    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	holderAddress   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

type stubCaller struct {
	uris map[int64]string
}

func (s stubCaller) Owner(context.Context) (common.Address, error) {
	return ownerAddress, nil
}

func (s stubCaller) OwnerOf(_ context.Context, id *big.Int) (common.Address, error) {
	if _, ok := s.uris[id.Int64()]; !ok {
		return common.Address{}, &contract.RevertError{Reason: "ERC721NonexistentToken(" + id.String() + ")"}
	}
	return holderAddress, nil
}

func (s stubCaller) TokenURI(_ context.Context, id *big.Int) (string, error) {
	uri, ok := s.uris[id.Int64()]
	if !ok {
		return "", &contract.RevertError{Reason: "ERC721NonexistentToken(" + id.String() + ")"}
	}
	return uri, nil
}

type stubPending struct{}

func (stubPending) Hash() string { return "0xabc" }

func (stubPending) Wait(context.Context) (*contract.Receipt, error) {
	return &contract.Receipt{
		TransactionHash: "0xabc",
		Status:          1,
		Logs: []contract.Log{{
			Address: contractAddress,
			Topics:  []common.Hash{contract.TransferTopic, {}, {}, common.BigToHash(big.NewInt(77))},
		}},
	}, nil
}

type stubTransactor struct{}

func (stubTransactor) IssueCredential(context.Context, common.Address, string) (contract.PendingTx, error) {
	return stubPending{}, nil
}

func (stubTransactor) IssueBatchCredentials(context.Context, []common.Address, []string) (contract.PendingTx, error) {
	return stubPending{}, nil
}

type stubProvider struct {
	account common.Address
	events  chan wallet.Event
}

func (p stubProvider) RequestAccounts(context.Context) ([]common.Address, error) {
	return []common.Address{p.account}, nil
}

func (p stubProvider) ChainID(context.Context) (uint64, error) {
	return 11155111, nil
}

func (p stubProvider) SignTx(context.Context, common.Address, *types.Transaction, *big.Int) (*types.Transaction, error) {
	return nil, wallet.ErrUnauthorized
}

func (p stubProvider) Events() <-chan wallet.Event {
	return p.events
}

func newTestRouter(t *testing.T, account common.Address, resolver *metadata.Resolver) (*gin.Engine, *console.Console) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	metrics, err := console.NewMetrics(registry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	credentialConsole, err := console.New(console.Config{
		ContractAddress: contractAddress,
		Caller: stubCaller{uris: map[int64]string{
			1: "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(`{"name":"Credential #1"}`)),
			2: "ipfs://bafy/2.json",
		}},
		Transactor: console.StaticTransactor(stubTransactor{}),
		Provider:   stubProvider{account: account, events: make(chan wallet.Event)},
		Metrics:    metrics,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	router, err := NewRouter(Config{Console: credentialConsole, Resolver: resolver, Gatherer: registry})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return router, credentialConsole
}

func doRequest(router http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestNewRouterRequiresConsole(t *testing.T) {
	if _, err := NewRouter(Config{}); err == nil {
		t.Fatal("expected missing console to fail")
	}
}

func TestHealthAndTraceHeader(t *testing.T) {
	router, _ := newTestRouter(t, ownerAddress, nil)

	request := httptest.NewRequest(http.MethodGet, "/health", nil)
	request.Header.Set(TraceParentHeader, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", recorder.Code)
	}
	if got := recorder.Header().Get(TraceIDHeader); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("unexpected trace id %q", got)
	}

	recorder = doRequest(router, http.MethodGet, "/health", "")
	if len(recorder.Header().Get(TraceIDHeader)) != 32 {
		t.Fatalf("expected generated trace id, got %q", recorder.Header().Get(TraceIDHeader))
	}
}

func TestIssueFlow(t *testing.T) {
	router, _ := newTestRouter(t, ownerAddress, nil)
	body := `{"recipient":"` + holderAddress.Hex() + `","metadata_uri":"ipfs://bafy/77.json"}`

	recorder := doRequest(router, http.MethodPost, "/api/v1/credentials", body)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before connect, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doRequest(router, http.MethodPost, "/api/v1/session/connect", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected connect status %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doRequest(router, http.MethodPost, "/api/v1/credentials", body)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("unexpected issue status %d: %s", recorder.Code, recorder.Body.String())
	}
	var response struct {
		Result console.MintResult `json:"result"`
		Status string             `json:"status"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(response.Result.MintedTokenIDs) != 1 || response.Result.MintedTokenIDs[0].Int64() != 77 {
		t.Fatalf("unexpected result %+v", response.Result)
	}
	if !strings.HasPrefix(response.Status, "Issued! TokenId: 77") {
		t.Fatalf("unexpected status %q", response.Status)
	}

	recorder = doRequest(router, http.MethodPost, "/api/v1/credentials/batch", `{"recipients":"0x1234","uris":"ipfs://a"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid batch, got %d", recorder.Code)
	}

	recorder = doRequest(router, http.MethodPost, "/api/v1/session/disconnect", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected disconnect status %d", recorder.Code)
	}
	recorder = doRequest(router, http.MethodPost, "/api/v1/credentials/batch", `{"recipients":"`+holderAddress.Hex()+`","uris":"ipfs://a"}`)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after disconnect, got %d", recorder.Code)
	}
}

func TestIssueRequiresOwner(t *testing.T) {
	router, _ := newTestRouter(t, holderAddress, nil)
	doRequest(router, http.MethodPost, "/api/v1/session/connect", "")
	recorder := doRequest(router, http.MethodPost, "/api/v1/credentials", `{"recipient":"`+holderAddress.Hex()+`","metadata_uri":"ipfs://x"}`)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
}

func TestLookupAndList(t *testing.T) {
	router, _ := newTestRouter(t, ownerAddress, nil)

	recorder := doRequest(router, http.MethodGet, "/api/v1/tokens/2", "")
	if recorder.Code != http.StatusOK || !strings.Contains(recorder.Body.String(), "ipfs://bafy/2.json") {
		t.Fatalf("unexpected lookup response %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doRequest(router, http.MethodGet, "/api/v1/tokens/9", "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing token, got %d", recorder.Code)
	}

	recorder = doRequest(router, http.MethodGet, "/api/v1/tokens?from=1&to=5", "")
	var listed struct {
		Result console.RangeResult `json:"result"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &listed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listed.Result.Records) != 2 {
		t.Fatalf("expected two tokens, got %+v", listed.Result)
	}

	recorder = doRequest(router, http.MethodGet, "/api/v1/tokens?from=10&to=5", "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an inverted range, got %d", recorder.Code)
	}

	recorder = doRequest(router, http.MethodGet, "/api/v1/state", "")
	if recorder.Code != http.StatusOK || !strings.Contains(recorder.Body.String(), `"listed"`) {
		t.Fatalf("unexpected state response %d", recorder.Code)
	}
}

func TestQRCodeRoutes(t *testing.T) {
	router, _ := newTestRouter(t, ownerAddress, nil)

	recorder := doRequest(router, http.MethodGet, "/api/v1/tokens/2/qr.png?size=128", "")
	if recorder.Code != http.StatusOK || recorder.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected qr response %d %q", recorder.Code, recorder.Header().Get("Content-Type"))
	}
	if _, err := png.Decode(bytes.NewReader(recorder.Body.Bytes())); err != nil {
		t.Fatalf("expected PNG body: %v", err)
	}

	recorder = doRequest(router, http.MethodGet, "/api/v1/qr.png?uri=ipfs%3A%2F%2Fbafy%2F3.json&level=H", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected qr response %d", recorder.Code)
	}

	for _, path := range []string{"/api/v1/qr.png", "/api/v1/qr.png?uri=x&size=abc", "/api/v1/qr.png?uri=x&level=z"} {
		if recorder := doRequest(router, http.MethodGet, path, ""); recorder.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, recorder.Code)
		}
	}
}

func TestTokenMetadataRoute(t *testing.T) {
	resolver, err := metadata.NewResolver(metadata.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	router, _ := newTestRouter(t, ownerAddress, resolver)

	recorder := doRequest(router, http.MethodGet, "/api/v1/tokens/1/metadata", "")
	if recorder.Code != http.StatusOK || !strings.Contains(recorder.Body.String(), "Credential #1") {
		t.Fatalf("unexpected metadata response %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	router, _ := newTestRouter(t, ownerAddress, nil)
	doRequest(router, http.MethodGet, "/api/v1/tokens?from=1&to=2", "")

	recorder := doRequest(router, http.MethodGet, "/metrics", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected metrics status %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "verifychain_console_operations_total") {
		t.Fatalf("expected console metrics, got %s", recorder.Body.String())
	}
}

func TestTokenRoutesDoNotChangeLookupState(t *testing.T) {
	resolver, err := metadata.NewResolver(metadata.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	router, credentialConsole := newTestRouter(t, ownerAddress, resolver)

	if recorder := doRequest(router, http.MethodGet, "/api/v1/tokens/2", ""); recorder.Code != http.StatusOK {
		t.Fatalf("unexpected lookup status %d", recorder.Code)
	}
	before := credentialConsole.State()

	if recorder := doRequest(router, http.MethodGet, "/api/v1/tokens/1/qr.png", ""); recorder.Code != http.StatusOK {
		t.Fatalf("unexpected qr status %d", recorder.Code)
	}
	if recorder := doRequest(router, http.MethodGet, "/api/v1/tokens/1/metadata", ""); recorder.Code != http.StatusOK {
		t.Fatalf("unexpected metadata status %d", recorder.Code)
	}
	if recorder := doRequest(router, http.MethodGet, "/api/v1/tokens/9/qr.png", ""); recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing token, got %d", recorder.Code)
	}
	if recorder := doRequest(router, http.MethodGet, "/api/v1/tokens/abc/metadata", ""); recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an invalid id, got %d", recorder.Code)
	}

	after := credentialConsole.State()
	if after.Lookup == nil || after.Lookup.TokenID.Int64() != 2 {
		t.Fatalf("expected lookup of token 2 to be kept, got %+v", after.Lookup)
	}
	if after.Status != before.Status || after.Operations[console.OperationLookupOne].ID != before.Operations[console.OperationLookupOne].ID {
		t.Fatal("expected status and lookup operation to be unchanged")
	}
}
