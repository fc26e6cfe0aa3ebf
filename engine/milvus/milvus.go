// Package milvus implements the vector engine interface against the Milvus
// RESTful v2 API.
package milvus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	vecshelf "github.com/vecshelf/vecshelf"
)

// Compile-time interface check.
var _ vecshelf.Engine = (*Client)(nil)

const apiPrefix = "/v2/vectordb"

// Client is a minimal REST client to Milvus v2. Every collection it creates
// carries the same fixed schema: an auto-assigned Int64 primary id, a
// bounded VarChar text field, and a FloatVector field with a COSINE
// AUTOINDEX. The client is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (30s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(m *Client) { m.http = c }
}

// WithLogger sets a structured logger for engine calls.
func WithLogger(l *slog.Logger) Option {
	return func(m *Client) { m.logger = l }
}

// New creates a Client for the Milvus server at baseURL. token may be empty
// for unauthenticated deployments.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("milvus: base URL required")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// CreateCollection creates a collection with the fixed schema and loads it
// so it is immediately searchable.
func (c *Client) CreateCollection(ctx context.Context, name string, schema vecshelf.CollectionSchema) error {
	body := map[string]any{
		"collectionName": name,
		"schema": map[string]any{
			"autoId":             true,
			"enableDynamicField": false,
			"fields": []map[string]any{
				{
					"fieldName": "id",
					"dataType":  "Int64",
					"isPrimary": true,
				},
				{
					"fieldName": "text",
					"dataType":  "VarChar",
					"elementTypeParams": map[string]any{
						"max_length": strconv.Itoa(schema.MaxTextLength),
					},
				},
				{
					"fieldName": "vector",
					"dataType":  "FloatVector",
					"elementTypeParams": map[string]any{
						"dim": strconv.Itoa(schema.Dimension),
					},
				},
			},
		},
		"indexParams": []map[string]any{
			{
				"fieldName":  "vector",
				"indexName":  "vector_index",
				"metricType": "COSINE",
				"indexType":  "AUTOINDEX",
			},
		},
	}
	if err := c.post(ctx, "/collections/create", body, nil); err != nil {
		return err
	}
	c.logger.Info("collection created", "collection", name, "dim", schema.Dimension)
	return c.post(ctx, "/collections/load", map[string]any{"collectionName": name}, nil)
}

// HasCollection reports whether the engine catalog contains name.
func (c *Client) HasCollection(ctx context.Context, name string) (bool, error) {
	var data struct {
		Has bool `json:"has"`
	}
	err := c.post(ctx, "/collections/has", map[string]any{"collectionName": name}, &data)
	if err != nil {
		return false, err
	}
	return data.Has, nil
}

// DropCollection removes the collection and all its rows.
func (c *Client) DropCollection(ctx context.Context, name string) error {
	return c.post(ctx, "/collections/drop", map[string]any{"collectionName": name}, nil)
}

// ListCollections returns every collection name in the engine catalog.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.post(ctx, "/collections/list", map[string]any{}, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// Insert writes rows and returns the engine-acknowledged row count.
func (c *Client) Insert(ctx context.Context, name string, rows []vecshelf.Row) (int, error) {
	data := make([]map[string]any, len(rows))
	for i, r := range rows {
		data[i] = map[string]any{
			"text":   r.Text,
			"vector": r.Vector,
		}
	}
	body := map[string]any{
		"collectionName": name,
		"data":           data,
	}
	var result struct {
		InsertCount int `json:"insertCount"`
	}
	if err := c.post(ctx, "/entities/insert", body, &result); err != nil {
		return 0, err
	}
	return result.InsertCount, nil
}

// CollectionStats returns engine-reported statistics for one collection.
func (c *Client) CollectionStats(ctx context.Context, name string) (map[string]any, error) {
	var stats map[string]any
	err := c.post(ctx, "/collections/get_stats", map[string]any{"collectionName": name}, &stats)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// envelope is the Milvus v2 response wrapper. A non-zero code signals an
// API-level failure even on HTTP 200.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("milvus: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("milvus: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("milvus: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &vecshelf.ErrHTTP{
			Status:     resp.StatusCode,
			Body:       string(raw),
			RetryAfter: retryAfter(resp),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("milvus: decode response: %w", err)
	}
	if env.Code != 0 {
		return fmt.Errorf("milvus: %s: code %d: %s", path, env.Code, env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("milvus: decode %s data: %w", path, err)
		}
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
