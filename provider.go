package vecshelf

import "context"

// EmbeddingProvider abstracts text embedding.
type EmbeddingProvider interface {
	// Embed returns one vector per input text, in input order. Implementations
	// must verify the service preserved positional correspondence rather than
	// assume it.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the embedding vector size.
	Dimensions() int
	// Name returns the provider name.
	Name() string
}

// RemoteSource abstracts the remote document store the resolver fetches from.
// The implementation holds a pre-authorized handle; raw credentials never
// pass through the ingestion core.
type RemoteSource interface {
	// ListChildren lists the files directly under a remote folder.
	ListChildren(ctx context.Context, folderID string) ([]RemoteFile, error)
	// Download fetches a file already stored in a downloadable binary form.
	Download(ctx context.Context, id string) ([]byte, error)
	// Export converts a cloud-native document server-side to targetMime and
	// fetches the result.
	Export(ctx context.Context, id, targetMime string) ([]byte, error)
}
