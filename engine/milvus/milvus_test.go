package milvus

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	vecshelf "github.com/vecshelf/vecshelf"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, "secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, c
}

func TestCreateCollectionRequest(t *testing.T) {
	var paths []string
	var createBody map[string]any
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path == "/v2/vectordb/collections/create" {
			if err := json.NewDecoder(r.Body).Decode(&createBody); err != nil {
				t.Errorf("decode body: %v", err)
			}
		}
		w.Write([]byte(`{"code":0}`))
	})

	schema := vecshelf.CollectionSchema{Dimension: 1024, MaxTextLength: 2048}
	if err := c.CreateCollection(context.Background(), "docs", schema); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	if len(paths) != 2 || paths[0] != "/v2/vectordb/collections/create" || paths[1] != "/v2/vectordb/collections/load" {
		t.Fatalf("paths = %v", paths)
	}
	if createBody["collectionName"] != "docs" {
		t.Fatalf("collectionName = %v", createBody["collectionName"])
	}
	idx := createBody["indexParams"].([]any)[0].(map[string]any)
	if idx["metricType"] != "COSINE" || idx["indexType"] != "AUTOINDEX" {
		t.Fatalf("indexParams = %v", idx)
	}
	fields := createBody["schema"].(map[string]any)["fields"].([]any)
	if len(fields) != 3 {
		t.Fatalf("fields = %v", fields)
	}
	vec := fields[2].(map[string]any)
	if vec["elementTypeParams"].(map[string]any)["dim"] != "1024" {
		t.Fatalf("vector field = %v", vec)
	}
}

func TestHasCollection(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/vectordb/collections/has" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"code":0,"data":{"has":true}}`))
	})
	has, err := c.HasCollection(context.Background(), "docs")
	if err != nil || !has {
		t.Fatalf("HasCollection = %v, %v", has, err)
	}
}

func TestListCollections(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0,"data":["alpha","beta"]}`))
	})
	names, err := c.ListCollections(context.Background())
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Fatalf("names = %v", names)
	}
}

func TestInsertReportsCount(t *testing.T) {
	var body map[string]any
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/vectordb/entities/insert" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"code":0,"data":{"insertCount":2}}`))
	})

	rows := []vecshelf.Row{
		{Text: "one", Vector: []float32{1, 0}},
		{Text: "two", Vector: []float32{0, 1}},
	}
	count, err := c.Insert(context.Background(), "docs", rows)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	data := body["data"].([]any)
	if len(data) != 2 || data[0].(map[string]any)["text"] != "one" {
		t.Fatalf("request data = %v", data)
	}
}

func TestAPIErrorCode(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":1100,"message":"invalid parameter"}`))
	})
	err := c.DropCollection(context.Background(), "docs")
	if err == nil {
		t.Fatal("expected error for non-zero response code")
	}
	if !strings.Contains(err.Error(), "invalid parameter") {
		t.Fatalf("error %v does not carry the server message", err)
	}
	var he *vecshelf.ErrHTTP
	if errors.As(err, &he) {
		t.Fatal("API-level failure should not be an HTTP status error")
	}
}

func TestHTTPErrorRetryAfter(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("overloaded"))
	})
	_, err := c.ListCollections(context.Background())
	var he *vecshelf.ErrHTTP
	if !errors.As(err, &he) {
		t.Fatalf("ListCollections = %v, want ErrHTTP", err)
	}
	if he.Status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", he.Status)
	}
	if he.RetryAfter != 7*time.Second {
		t.Fatalf("retry after = %v", he.RetryAfter)
	}
	if !vecshelf.Retryable(err) {
		t.Fatal("503 should be retryable")
	}
}

func TestCollectionStats(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0,"data":{"rowCount":128}}`))
	})
	stats, err := c.CollectionStats(context.Background(), "docs")
	if err != nil {
		t.Fatalf("CollectionStats: %v", err)
	}
	if stats["rowCount"] != float64(128) {
		t.Fatalf("stats = %v", stats)
	}
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := New("", ""); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}
