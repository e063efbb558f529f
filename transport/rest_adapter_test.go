package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-contact-relay/core"
	goerrors "github.com/goliatone/go-errors"
)

func TestRESTAdapter_MergesHeadersAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Fatalf("expected authorization header, got %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Fatalf("expected default accept header, got %q", got)
		}
		if got := r.URL.Query().Get("existing"); got != "1" {
			t.Fatalf("expected url query to be preserved, got %q", got)
		}
		if got := r.URL.Query().Get("properties"); got != "email,firstname" {
			t.Fatalf("expected merged properties query, got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"ok":true}` {
			t.Fatalf("unexpected body %q", string(body))
		}
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"c-1"}`))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client(), time.Second)
	res, err := adapter.Do(context.Background(), core.TransportRequest{
		Method:  "post",
		URL:     server.URL + "/contacts?existing=1",
		Headers: map[string]string{"Authorization": "Bearer token-1"},
		Query:   map[string]string{"properties": "email,firstname"},
		Body:    []byte(`{"ok":true}`),
	})
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}
	if res.Headers["X-Upstream"] != "yes" {
		t.Fatalf("expected flattened response headers, got %#v", res.Headers)
	}
	if res.Metadata["kind"] != KindREST {
		t.Fatalf("expected rest metadata kind")
	}
	if url, _ := res.Metadata["url"].(string); strings.Contains(url, "properties") {
		t.Fatalf("expected query to be redacted from metadata url, got %q", url)
	}
}

func TestRESTAdapter_ResponseLimitReturnsRichError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("12345"))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client(), time.Second)
	adapter.MaxResponseBodyBytes = 4

	_, err := adapter.Do(context.Background(), core.TransportRequest{Method: http.MethodGet, URL: server.URL})
	if err == nil {
		t.Fatalf("expected response body limit error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryExternal {
		t.Fatalf("expected external category, got %q", rich.Category)
	}
	if rich.TextCode != core.RelayErrorExternalFailure {
		t.Fatalf("expected %q text code, got %q", core.RelayErrorExternalFailure, rich.TextCode)
	}
	if rich.Code != http.StatusBadGateway {
		t.Fatalf("expected %d code, got %d", http.StatusBadGateway, rich.Code)
	}
}

func TestRESTAdapter_RequestBodyLimitOverridesAdapterLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("12345"))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client(), time.Second)
	adapter.MaxResponseBodyBytes = 1024

	_, err := adapter.Do(context.Background(), core.TransportRequest{
		Method:               http.MethodGet,
		URL:                  server.URL,
		MaxResponseBodyBytes: 4,
	})
	if err == nil {
		t.Fatalf("expected response body limit error")
	}
	if !strings.Contains(err.Error(), "response body exceeds limit of 4 bytes") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRESTAdapter_TimeoutBoundsSlowUpstream(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(release)

	adapter := NewRESTAdapter(server.Client(), 50*time.Millisecond)
	started := time.Now()
	_, err := adapter.Do(context.Background(), core.TransportRequest{Method: http.MethodGet, URL: server.URL})
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if elapsed := time.Since(started); elapsed > 2*time.Second {
		t.Fatalf("expected request to be bounded by the adapter timeout, took %s", elapsed)
	}
	if !goerrors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRESTAdapter_RejectsMissingURL(t *testing.T) {
	adapter := NewRESTAdapter(nil, 0)
	if adapter.Timeout != core.DefaultRequestTimeout {
		t.Fatalf("expected default timeout, got %s", adapter.Timeout)
	}
	_, err := adapter.Do(context.Background(), core.TransportRequest{Method: http.MethodGet})
	if err == nil {
		t.Fatalf("expected missing url error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.RelayErrorBadInput {
		t.Fatalf("expected bad input envelope, got %v", err)
	}
}

func TestStatusError_CarriesDetailAndCategory(t *testing.T) {
	err := StatusError("pandadoc: create contact", core.TransportResponse{
		StatusCode: http.StatusBadRequest,
		Body:       []byte(`{"type":"request_error","detail":"Contact with this email already exists"}`),
	}, map[string]any{"email": "a@example.com"})

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryBadInput {
		t.Fatalf("expected bad input category, got %q", rich.Category)
	}
	if rich.Metadata["detail"] != "Contact with this email already exists" {
		t.Fatalf("expected upstream detail, got %#v", rich.Metadata["detail"])
	}
	if core.StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", core.StatusCode(err))
	}

	err = StatusError("hubspot: fetch contact", core.TransportResponse{StatusCode: http.StatusServiceUnavailable}, nil)
	if !goerrors.As(err, &rich) || rich.Code != http.StatusBadGateway {
		t.Fatalf("expected 5xx to map to bad gateway, got %v", err)
	}
	if core.StatusCode(err) != http.StatusServiceUnavailable {
		t.Fatalf("expected upstream status in metadata, got %d", core.StatusCode(err))
	}
}

func TestDetail_FallsBackToRawBody(t *testing.T) {
	if got := Detail([]byte(`{"message":"Contact not found"}`)); got != "Contact not found" {
		t.Fatalf("expected message member, got %q", got)
	}
	if got := Detail([]byte("plain failure")); got != "plain failure" {
		t.Fatalf("expected raw body, got %q", got)
	}
	if got := Detail(nil); got != "" {
		t.Fatalf("expected empty detail, got %q", got)
	}
}
