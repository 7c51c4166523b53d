package metadata

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
)

const sampleDocument = `{"name":"Verifychain Credential #7","description":"Course completion","image":"ipfs://bafyimage/7.png","attributes":[{"trait_type":"Course","value":"Solidity 101"},{"trait_type":"Score","value":92}]}`

func brotliBytes(t *testing.T, payload string) []byte {
	t.Helper()
	var buffer bytes.Buffer
	writer := brotli.NewWriter(&buffer)
	if _, err := writer.Write([]byte(payload)); err != nil {
		t.Fatalf("failed to compress: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close brotli writer: %v", err)
	}
	return buffer.Bytes()
}

func newTestResolver(t *testing.T, gateway string) *Resolver {
	t.Helper()
	resolver, err := NewResolver(Config{IPFSGateway: gateway})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resolver
}

func TestNewResolverValidation(t *testing.T) {
	if _, err := NewResolver(Config{IPFSGateway: "ftp://gateway"}); err == nil {
		t.Fatal("expected non-http gateway to fail")
	}
	resolver := newTestResolver(t, "https://gateway.example/ipfs")
	if got := resolver.GatewayURL("ipfs://bafy123/meta.json"); got != "https://gateway.example/ipfs/bafy123/meta.json" {
		t.Fatalf("unexpected gateway url %q", got)
	}
	if got := resolver.GatewayURL("ipfs://ipfs/bafy123"); got != "https://gateway.example/ipfs/bafy123" {
		t.Fatalf("unexpected gateway url %q", got)
	}
	if got := resolver.GatewayURL("https://example.com/1.json"); got != "https://example.com/1.json" {
		t.Fatalf("expected http uri unchanged, got %q", got)
	}
}

func TestResolveDataURLs(t *testing.T) {
	resolver := newTestResolver(t, "")
	ctx := context.Background()

	plain := "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(sampleDocument))
	document, err := resolver.Resolve(ctx, plain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if document.Name != "Verifychain Credential #7" || len(document.Attributes) != 2 {
		t.Fatalf("unexpected document %+v", document)
	}
	if document.Attributes[1].Value != float64(92) {
		t.Fatalf("unexpected numeric attribute %#v", document.Attributes[1].Value)
	}

	compressed := "data:application/json;base64," + base64.StdEncoding.EncodeToString(brotliBytes(t, sampleDocument))
	document, err = resolver.Resolve(ctx, compressed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if document.Image != "ipfs://bafyimage/7.png" {
		t.Fatalf("unexpected image %q", document.Image)
	}

	escaped := `data:application/json,%7B%22name%22%3A%22Escaped%22%7D`
	document, err = resolver.Resolve(ctx, escaped)
	if err != nil || document.Name != "Escaped" {
		t.Fatalf("unexpected escaped document %+v %v", document, err)
	}

	if _, err := resolver.Resolve(ctx, "data:application/json;base64"); err == nil {
		t.Fatal("expected data url without payload to fail")
	}
}

func TestResolveHTTPEncodings(t *testing.T) {
	compressed := brotliBytes(t, sampleDocument)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ipfs/bafy123/7.json":
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "br") {
				t.Errorf("expected brotli to be accepted, got %q", r.Header.Get("Accept-Encoding"))
			}
			w.Header().Set("Content-Encoding", "br")
			_, _ = w.Write(compressed)
		case "/gzip.json":
			w.Header().Set("Content-Encoding", "gzip")
			writer := gzip.NewWriter(w)
			_, _ = writer.Write([]byte(sampleDocument))
			_ = writer.Close()
		case "/plain.json":
			_, _ = w.Write([]byte(sampleDocument))
		default:
			http.Error(w, "not pinned", http.StatusNotFound)
		}
	}))
	defer server.Close()

	resolver := newTestResolver(t, server.URL+"/ipfs/")
	ctx := context.Background()

	for _, uri := range []string{"ipfs://bafy123/7.json", server.URL + "/gzip.json", server.URL + "/plain.json"} {
		document, err := resolver.Resolve(ctx, uri)
		if err != nil {
			t.Fatalf("Resolve(%q): unexpected error: %v", uri, err)
		}
		if document.Name != "Verifychain Credential #7" {
			t.Fatalf("Resolve(%q): unexpected name %q", uri, document.Name)
		}
		if !bytes.Equal(document.Raw, []byte(sampleDocument)) {
			t.Fatalf("Resolve(%q): expected raw payload to be kept", uri)
		}
	}

	_, err := resolver.Resolve(ctx, "ipfs://missing")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestResolveLimitsAndSchemes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	resolver, err := NewResolver(Config{MaxBytes: 32})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := resolver.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected oversized body to fail")
	}
	if _, err := resolver.Fetch(context.Background(), "ar://tx"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), "data:text/plain,not-json"); err == nil {
		t.Fatal("expected non-JSON document to fail")
	}
}

func TestDataURLBrotliInflationIsCapped(t *testing.T) {
	compressed := brotliBytes(t, strings.Repeat("\x00", 8<<20))
	uri := "data:application/json;base64," + base64.StdEncoding.EncodeToString(compressed)
	if len(uri) > 64<<10 {
		t.Fatalf("expected a small URI, got %d bytes", len(uri))
	}

	resolver, err := NewResolver(Config{MaxBytes: 1024})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := resolver.Fetch(context.Background(), uri); err == nil || !strings.Contains(err.Error(), "exceeds 1024 bytes") {
		t.Fatalf("expected size limit error, got %v", err)
	}

	if _, err := DecodeDataURL(uri); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected default size limit error, got %v", err)
	}

	small := "data:application/json;base64," + base64.StdEncoding.EncodeToString(brotliBytes(t, sampleDocument))
	payload, err := resolver.Fetch(context.Background(), small)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != sampleDocument {
		t.Fatalf("unexpected payload %q", payload)
	}
}
