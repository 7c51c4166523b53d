package metadata

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

const (
	DefaultIPFSGateway = "https://ipfs.io/ipfs/"
	defaultMaxBytes    = 1 << 20
	dataURLPartCount   = 2
)

var ErrUnsupportedScheme = errors.New("unsupported metadata URI scheme")

type Config struct {
	IPFSGateway string
	HTTPClient  *http.Client
	// MaxBytes caps the decoded document size. Zero means 1 MiB.
	MaxBytes int64
}

type Resolver struct {
	gateway    string
	httpClient *http.Client
	maxBytes   int64
}

// NewResolver creates a new Resolver.
func NewResolver(config Config) (*Resolver, error) {
	gateway := strings.TrimSpace(config.IPFSGateway)
	if gateway == "" {
		gateway = DefaultIPFSGateway
	}
	parsed, err := url.Parse(gateway)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("invalid IPFS gateway %q", config.IPFSGateway)
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	maxBytes := config.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	return &Resolver{
		gateway:    gateway,
		httpClient: httpClient,
		maxBytes:   maxBytes,
	}, nil
}

// GatewayURL maps an ipfs:// URI onto the configured gateway. Other URIs are
// returned unchanged.
func (r *Resolver) GatewayURL(uri string) string {
	trimmed := strings.TrimSpace(uri)
	if !strings.HasPrefix(strings.ToLower(trimmed), "ipfs://") {
		return trimmed
	}
	path := trimmed[len("ipfs://"):]
	path = strings.TrimPrefix(path, "ipfs/")
	return r.gateway + strings.TrimLeft(path, "/")
}

// Resolve fetches uri and decodes it as a metadata document.
func (r *Resolver) Resolve(ctx context.Context, uri string) (*Document, error) {
	payload, err := r.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}

	var document Document
	if err := json.Unmarshal(payload, &document); err != nil {
		return nil, fmt.Errorf("failed to decode metadata document: %w", err)
	}
	document.Raw = append(json.RawMessage(nil), payload...)
	return &document, nil
}

// Fetch returns the raw bytes uri points at.
func (r *Resolver) Fetch(ctx context.Context, uri string) ([]byte, error) {
	trimmed := strings.TrimSpace(uri)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "data:"):
		return r.limit(decodeDataURL(trimmed, r.maxBytes))
	case strings.HasPrefix(lower, "ipfs://"), strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return r.fetchHTTP(ctx, r.GatewayURL(trimmed))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, trimmed)
	}
}

func (r *Resolver) fetchHTTP(ctx context.Context, target string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("Accept-Encoding", "br, gzip")

	response, err := r.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("metadata request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return nil, fmt.Errorf(
			"metadata request to %s failed with status %d: %s",
			target,
			response.StatusCode,
			strings.TrimSpace(string(snippet)),
		)
	}

	var reader io.Reader = response.Body
	switch strings.ToLower(strings.TrimSpace(response.Header.Get("Content-Encoding"))) {
	case "br":
		reader = brotli.NewReader(response.Body)
	case "gzip":
		gzipReader, gzipErr := gzip.NewReader(response.Body)
		if gzipErr != nil {
			return nil, fmt.Errorf("failed to open gzip metadata body: %w", gzipErr)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	payload, err := io.ReadAll(io.LimitReader(reader, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata body: %w", err)
	}
	return r.limit(payload, nil)
}

func (r *Resolver) limit(payload []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	if int64(len(payload)) > r.maxBytes {
		return nil, fmt.Errorf("metadata document exceeds %d bytes", r.maxBytes)
	}
	return payload, nil
}

// DecodeDataURL decodes a data: URI. Base64 payloads that are not JSON are
// tried as brotli streams; a stream that inflates past 1 MiB is an error.
func DecodeDataURL(input string) ([]byte, error) {
	return decodeDataURL(input, defaultMaxBytes)
}

func decodeDataURL(input string, maxBytes int64) ([]byte, error) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(strings.ToLower(trimmed), "data:") {
		return nil, fmt.Errorf("not a data URL")
	}

	parts := strings.SplitN(trimmed, ",", dataURLPartCount)
	if len(parts) != dataURLPartCount {
		return nil, fmt.Errorf("invalid data URL")
	}

	header := strings.ToLower(parts[0])
	if !strings.Contains(header, ";base64") {
		unescaped, err := url.PathUnescape(parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to unescape data URL payload: %w", err)
		}
		return []byte(unescaped), nil
	}

	decoded, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URL base64 payload: %w", err)
	}
	if looksLikeJSON(decoded) {
		return decoded, nil
	}

	decompressed, err := io.ReadAll(io.LimitReader(brotli.NewReader(bytes.NewReader(decoded)), maxBytes+1))
	if int64(len(decompressed)) > maxBytes {
		return nil, fmt.Errorf("metadata document exceeds %d bytes", maxBytes)
	}
	if err == nil && len(decompressed) > 0 {
		return decompressed, nil
	}
	return decoded, nil
}

func looksLikeJSON(payload []byte) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
