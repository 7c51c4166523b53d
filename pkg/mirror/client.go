package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/verifychain/credentials-sdk-go/pkg/shared"
)

type Config struct {
	Network    string
	BaseURL    string
	HTTPClient *http.Client
	APIKey     string
	Headers    map[string]string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	headers    map[string]string
}

type WaitOptions struct {
	MaxAttempts int
	Interval    time.Duration
}

// NewClient creates a new Client.
func NewClient(config Config) (*Client, error) {
	network, err := shared.NormalizeNetwork(config.Network)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		if network == shared.NetworkMainnet {
			baseURL = "https://mainnet-public.mirrornode.hedera.com"
		} else {
			baseURL = "https://testnet.mirrornode.hedera.com"
		}
	}
	parsedBaseURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid mirror base URL: %w", err)
	}
	if parsedBaseURL.Scheme != "http" && parsedBaseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid mirror base URL: scheme must be http or https")
	}
	if strings.TrimSpace(parsedBaseURL.Host) == "" {
		return nil, fmt.Errorf("invalid mirror base URL: host is required")
	}
	baseURL = strings.TrimRight(parsedBaseURL.String(), "/")

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	headers := map[string]string{}
	for key, value := range config.Headers {
		headers[key] = value
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		apiKey:     strings.TrimSpace(config.APIKey),
		headers:    headers,
	}, nil
}

// BaseURL returns the mirror node root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CallContract runs a read-only contract call and returns the hex result.
func (c *Client) CallContract(ctx context.Context, request ContractCallRequest) (string, error) {
	if strings.TrimSpace(request.To) == "" {
		return "", fmt.Errorf("contract address is required")
	}
	if request.Block == "" {
		request.Block = "latest"
	}

	var response contractCallResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/contracts/call", request, &response); err != nil {
		return "", err
	}
	return response.Result, nil
}

// GetContractResult returns the contract result of a transaction, addressed
// by Hedera transaction id or EVM hash.
func (c *Client) GetContractResult(ctx context.Context, transactionIDOrHash string) (*ContractResult, error) {
	normalized := strings.TrimSpace(transactionIDOrHash)
	if normalized == "" {
		return nil, fmt.Errorf("transaction ID is required")
	}

	var result ContractResult
	path := fmt.Sprintf("/api/v1/contracts/results/%s", url.PathEscape(FormatTransactionID(normalized)))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WaitForContractResult polls GetContractResult until the mirror node has
// indexed the transaction.
func (c *Client) WaitForContractResult(
	ctx context.Context,
	transactionIDOrHash string,
	options WaitOptions,
) (*ContractResult, error) {
	maxAttempts := options.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	interval := options.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	for attempt := 1; ; attempt++ {
		result, err := c.GetContractResult(ctx, transactionIDOrHash)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if attempt >= maxAttempts {
			return nil, fmt.Errorf("contract result for %s not indexed after %d attempts", transactionIDOrHash, attempt)
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

// FormatTransactionID converts a Hedera SDK transaction id
// (0.0.123@1700000000.000000001) to the mirror node path form
// (0.0.123-1700000000-000000001). Other values are returned unchanged.
func FormatTransactionID(transactionID string) string {
	account, validStart, found := strings.Cut(transactionID, "@")
	if !found {
		return transactionID
	}
	validStart, _, _ = strings.Cut(validStart, "?")
	return account + "-" + strings.Replace(validStart, ".", "-", 1)
}

func (c *Client) doJSON(ctx context.Context, method string, pathOrURL string, body any, target any) error {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = bytes.NewReader(encoded)
	}

	requestURL := c.resolveURL(pathOrURL)
	request, err := http.NewRequestWithContext(ctx, method, requestURL, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		request.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}
	for key, value := range c.headers {
		request.Header.Set(key, value)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("mirror node request failed: %w", err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read mirror node response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return decodeCallError(response.StatusCode, responseBody)
	}

	if err := json.Unmarshal(responseBody, target); err != nil {
		return fmt.Errorf("failed to decode mirror node response: %w", err)
	}

	return nil
}

func decodeCallError(statusCode int, body []byte) error {
	callErr := &CallError{
		StatusCode: statusCode,
		Message:    strings.TrimSpace(string(body)),
	}

	var decoded errorResponse
	if err := json.Unmarshal(body, &decoded); err == nil && len(decoded.Status.Messages) > 0 {
		first := decoded.Status.Messages[0]
		callErr.Message = first.Message
		callErr.Detail = first.Detail
		callErr.Data = first.Data
	}

	return callErr
}

func (c *Client) resolveURL(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}

	path := pathOrURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}
