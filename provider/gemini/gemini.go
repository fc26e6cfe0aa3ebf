// Package gemini implements the embedding provider backed by the Google
// generative AI API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	vecshelf "github.com/vecshelf/vecshelf"
)

// Compile-time interface check.
var _ vecshelf.EmbeddingProvider = (*Provider)(nil)

// Provider embeds text batches with a single batch request per call.
//
// The batch API offers no way to request an output width, so dims must
// match the model's native width (3072 for gemini-embedding-001). Embed
// rejects vectors of any other width rather than letting a mis-sized
// vector reach the engine.
type Provider struct {
	client *genai.Client
	model  string
	dims   int
}

// New creates a Provider. Extra client options are passed through, which
// lets tests point the client at a local endpoint.
func New(ctx context.Context, apiKey, model string, dims int, opts ...option.ClientOption) (*Provider, error) {
	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &Provider{client: client, model: model, dims: dims}, nil
}

// Name returns "gemini".
func (p *Provider) Name() string { return "gemini" }

// Dimensions returns the configured embedding width.
func (p *Provider) Dimensions() int { return p.dims }

// Close releases the underlying API client.
func (p *Provider) Close() error { return p.client.Close() }

// Embed embeds all texts in one batch request. The batch API returns one
// embedding per content in submission order; the count is verified so a
// short response can never silently shift the pairing.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	em := p.client.EmbeddingModel(p.model)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, wrapErr(err)
	}
	return vectorsFromBatch(resp, len(texts), p.dims)
}

// vectorsFromBatch validates a batch response: one embedding per input and
// every vector exactly dims wide. The model's native width is fixed, so a
// width mismatch means the configured dimension does not match the model.
func vectorsFromBatch(resp *genai.BatchEmbedContentsResponse, want, dims int) ([][]float32, error) {
	if len(resp.Embeddings) != want {
		return nil, fmt.Errorf("gemini: embedded %d of %d texts", len(resp.Embeddings), want)
	}
	out := make([][]float32, want)
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("gemini: empty embedding for input %d", i)
		}
		if len(e.Values) != dims {
			return nil, fmt.Errorf("gemini: model returned %d-wide vector for input %d, configured for %d", len(e.Values), i, dims)
		}
		out[i] = e.Values
	}
	return out, nil
}

func wrapErr(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &vecshelf.ErrHTTP{Status: apiErr.Code, Body: apiErr.Message}
	}
	return fmt.Errorf("gemini: %w", err)
}
