// Package openai implements the embedding provider backed by the OpenAI
// embeddings API.
package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	vecshelf "github.com/vecshelf/vecshelf"
)

// Compile-time interface check.
var _ vecshelf.EmbeddingProvider = (*Provider)(nil)

// Provider embeds text batches with a single OpenAI API call per batch.
type Provider struct {
	client *openai.Client
	model  string
	dims   int
}

// New creates a Provider. dims must match the vector width of every
// collection the embeddings are inserted into; models of the
// text-embedding-3 family are truncated server-side to this width.
func New(apiKey, model string, dims int) *Provider {
	return NewWithClient(openai.NewClient(apiKey), model, dims)
}

// NewWithClient creates a Provider around an existing client, for custom
// base URLs or transports.
func NewWithClient(client *openai.Client, model string, dims int) *Provider {
	return &Provider{client: client, model: model, dims: dims}
}

// Name returns "openai".
func (p *Provider) Name() string { return "openai" }

// Dimensions returns the configured embedding width.
func (p *Provider) Dimensions() int { return p.dims }

// Embed embeds all texts in one request. The API tags each embedding with
// its input index; vectors are placed by that tag rather than trusting
// response order, so output position i always corresponds to texts[i].
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(p.model),
		Input:      texts,
		Dimensions: p.dims,
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: embedded %d of %d texts", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		if out[d.Index] != nil {
			return nil, fmt.Errorf("openai: duplicate embedding for index %d", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("openai: no embedding returned for input %d", i)
		}
	}
	return out, nil
}

func wrapErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &vecshelf.ErrHTTP{Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	return err
}
