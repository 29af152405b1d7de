package jina

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_DefaultsToMarkdown(t *testing.T) {
	t.Parallel()

	want := ReadResponse{
		Code: 200,
		Data: ReadData{
			Title:   "Acme Corp",
			URL:     "https://acme.com",
			Content: "# Acme Corp\n\nWe build things.",
			Usage:   ReadUsage{Tokens: 2150},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "markdown", r.Header.Get("X-Return-Format"))
		assert.Empty(t, r.Header.Get("X-Timeout"))
		assert.Equal(t, "/https://acme.com", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(want) //nolint:errcheck
	}))
	defer srv.Close()

	got, err := NewClient("test-key", WithBaseURL(srv.URL)).Read(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, want.Data.Title, got.Data.Title)
	assert.Equal(t, want.Data.Content, got.Data.Body())
	assert.Equal(t, 2150, got.Data.Usage.Tokens)
}

func TestRead_HTMLFormat(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "html", r.Header.Get("X-Return-Format"))
		assert.Equal(t, "20", r.Header.Get("X-Timeout"))
		assert.Empty(t, r.Header.Get("Authorization"), "anonymous tier sends no key")
		w.Write([]byte(`{"code":200,"data":{"url":"https://acme.com","html":"<html><body>hi</body></html>"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	got, err := NewClient("", WithBaseURL(srv.URL)).Read(context.Background(), "https://acme.com",
		WithFormat(FormatHTML), WithTimeout(20*time.Second))
	require.NoError(t, err)
	assert.Equal(t, "<html><body>hi</body></html>", got.Data.Body())
}

func TestRead_ClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`forbidden`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Read(context.Background(), "https://acme.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), calls.Load(), "4xx is not retried")
}

func TestRead_MalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Read(context.Background(), "https://acme.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal response")
}

func TestRead_RetryOn429(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"code":200,"data":{"content":"ok"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	got, err := NewClient("k", WithBaseURL(srv.URL), WithBackoff(time.Millisecond)).Read(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Data.Content)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRead_RetryExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL), WithBackoff(time.Millisecond)).Read(context.Background(), "https://acme.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, int32(3), calls.Load())
}

func TestRead_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Read(ctx, "https://acme.com")
	require.Error(t, err)
}

func TestRetryableStatusCode(t *testing.T) {
	t.Parallel()

	for code, want := range map[int]bool{200: false, 404: false, 429: true, 500: true, 502: true, 503: true, 504: false} {
		assert.Equal(t, want, retryableStatusCode(code), "status %d", code)
	}
}
