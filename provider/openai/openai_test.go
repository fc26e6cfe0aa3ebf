package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	vecshelf "github.com/vecshelf/vecshelf"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewWithClient(openai.NewClientWithConfig(cfg), "text-embedding-3-small", 2)
}

func TestEmbedReordersByIndex(t *testing.T) {
	// The server returns embeddings out of order; the provider must place
	// them back by index.
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"object": "list",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [1, 1]},
				{"object": "embedding", "index": 0, "embedding": [0, 0]},
				{"object": "embedding", "index": 2, "embedding": [2, 2]}
			],
			"model": "text-embedding-3-small",
			"usage": {"prompt_tokens": 3, "total_tokens": 3}
		}`))
	})

	vectors, err := p.Embed(context.Background(), []string{"x", "y", "z"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vectors))
	}
	for i, v := range vectors {
		if v[0] != float32(i) {
			t.Errorf("vectors[%d] = %v, not reordered by index", i, v)
		}
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"object": "list",
			"data": [{"object": "embedding", "index": 0, "embedding": [0, 0]}],
			"model": "text-embedding-3-small",
			"usage": {"prompt_tokens": 2, "total_tokens": 2}
		}`))
	})

	if _, err := p.Embed(context.Background(), []string{"x", "y"}); err == nil {
		t.Fatal("expected error for short embedding response")
	}
}

func TestEmbedRateLimited(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited", "type": "requests"}}`))
	})

	_, err := p.Embed(context.Background(), []string{"x"})
	var he *vecshelf.ErrHTTP
	if !errors.As(err, &he) {
		t.Fatalf("Embed = %v, want ErrHTTP", err)
	}
	if he.Status != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", he.Status)
	}
	if !vecshelf.Retryable(err) {
		t.Fatal("429 should be retryable")
	}
}

func TestEmbedEmptyBatch(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty batch must not reach the API")
	})
	vectors, err := p.Embed(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Fatalf("Embed(nil) = %v, %v", vectors, err)
	}
}

func TestProviderMetadata(t *testing.T) {
	p := New("key", "text-embedding-3-small", 1024)
	if p.Name() != "openai" || p.Dimensions() != 1024 {
		t.Fatalf("metadata = %s, %d", p.Name(), p.Dimensions())
	}
}
