package vecshelf

import "context"

// Engine abstracts the vector engine's write path. The engine owns row
// storage and ids; the registry and pipeline never reach into its internals.
type Engine interface {
	// CreateCollection creates a collection with the fixed schema and a
	// cosine-similarity index on the vector field.
	CreateCollection(ctx context.Context, name string, schema CollectionSchema) error
	// HasCollection reports whether the engine catalog contains name.
	HasCollection(ctx context.Context, name string) (bool, error)
	// DropCollection removes the collection and all its rows.
	DropCollection(ctx context.Context, name string) error
	// ListCollections returns every collection name in the engine catalog.
	ListCollections(ctx context.Context) ([]string, error)
	// Insert writes rows and returns the engine-acknowledged row count.
	Insert(ctx context.Context, name string, rows []Row) (int, error)
	// CollectionStats returns engine-reported statistics for one collection.
	CollectionStats(ctx context.Context, name string) (map[string]any, error)
	// Close releases the engine connection.
	Close() error
}
