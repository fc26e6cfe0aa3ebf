package vecshelf

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultDescription is attached to collections created without one.
const DefaultDescription = "A searchable file collection."

// Registry owns the persisted collection ledger and keeps it consistent with
// the vector engine's catalog. It is the single writer of the ledger: all
// mutating calls serialize through one in-process lock.
type Registry struct {
	mu     sync.Mutex
	path   string
	engine Engine
	dims   int
	logger *slog.Logger
	ledger ledger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets a structured logger for the registry. If not set, no logs
// are emitted.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// OpenRegistry loads the ledger at path and reconciles it against the
// engine's catalog. dims is the embedding dimensionality every collection
// schema is created with.
//
// A corrupt ledger resets to empty (logged, not fatal). Reconciliation
// resolves interrupted operations recorded as write-ahead intents: an
// engine collection created but never committed to the ledger is completed,
// an interrupted removal is finished, and catalog entries with no ledger
// counterpart (or vice versa) are repaired rather than left silently
// divergent.
func OpenRegistry(ctx context.Context, path string, engine Engine, dims int, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		path:   path,
		engine: engine,
		dims:   dims,
		logger: nopLogger,
	}
	for _, o := range opts {
		o(r)
	}
	r.ledger = loadLedger(path, r.logger)
	if err := r.reconcile(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// reconcile repairs divergence between the ledger and the engine catalog.
func (r *Registry) reconcile(ctx context.Context) error {
	names, err := r.engine.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("engine catalog: %w", err)
	}
	inEngine := make(map[string]bool, len(names))
	for _, n := range names {
		inEngine[n] = true
	}

	// Resolve write-ahead intents first.
	intents := r.ledger.Intents
	r.ledger.Intents = nil
	for _, it := range intents {
		switch it.Op {
		case opCreate:
			if inEngine[it.CollectionName] && r.ledger.entry(it.CollectionName) == nil {
				r.logger.Info("completing interrupted create", "collection", it.CollectionName)
				r.ledger.Collections = append(r.ledger.Collections, CollectionRecord{
					CollectionName: it.CollectionName,
					Description:    it.Description,
					Files:          []FileRecord{},
				})
			}
			// Engine never saw the create: nothing to roll back.
		case opRemove:
			if inEngine[it.CollectionName] {
				r.logger.Info("finishing interrupted remove", "collection", it.CollectionName)
				if err := r.engine.DropCollection(ctx, it.CollectionName); err != nil {
					// Keep the intent so the next startup retries the drop.
					r.ledger.Intents = append(r.ledger.Intents, it)
					continue
				}
				delete(inEngine, it.CollectionName)
			}
			r.ledger.removeEntry(it.CollectionName)
		}
	}

	// Engine collections unknown to the ledger: adopt with empty membership.
	for _, n := range names {
		if inEngine[n] && r.ledger.entry(n) == nil {
			r.logger.Warn("adopting untracked engine collection", "collection", n)
			r.ledger.Collections = append(r.ledger.Collections, CollectionRecord{
				CollectionName: n,
				Files:          []FileRecord{},
			})
		}
	}

	// Ledger entries whose engine collection is gone: drop the entry.
	kept := r.ledger.Collections[:0]
	for _, c := range r.ledger.Collections {
		if inEngine[c.CollectionName] {
			kept = append(kept, c)
			continue
		}
		r.logger.Warn("dropping ledger entry missing from engine", "collection", c.CollectionName)
	}
	r.ledger.Collections = kept

	return saveLedger(r.path, r.ledger)
}

// ListCollections returns ledger-known collection names. It never queries
// the engine.
func (r *Registry) ListCollections() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.ledger.Collections))
	for i, c := range r.ledger.Collections {
		names[i] = c.CollectionName
	}
	return names
}

// HasCollection reports whether the ledger knows name.
func (r *Registry) HasCollection(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.entry(name) != nil
}

// AddCollection creates a collection in the engine and commits it to the
// ledger. It returns false with a nil error when the engine already has a
// collection of that name — a no-op, not a failure.
//
// Commit order: intent persisted, engine collection + index created, ledger
// entry appended and persisted. A crash between engine create and ledger
// persist leaves an intent for the next startup's reconciliation.
func (r *Registry) AddCollection(ctx context.Context, name, description string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	has, err := r.engine.HasCollection(ctx, name)
	if err != nil {
		return false, fmt.Errorf("engine: %w", err)
	}
	if has {
		return false, nil
	}

	if description == "" {
		description = DefaultDescription
	}

	r.ledger.Intents = append(r.ledger.Intents, intent{
		Op:             opCreate,
		CollectionName: name,
		Description:    description,
	})
	if err := saveLedger(r.path, r.ledger); err != nil {
		r.ledger.clearIntent(name)
		return false, err
	}

	schema := CollectionSchema{
		Description:   description,
		Dimension:     r.dims,
		MaxTextLength: DefaultMaxTextLength,
	}
	if err := r.engine.CreateCollection(ctx, name, schema); err != nil {
		r.ledger.clearIntent(name)
		if serr := saveLedger(r.path, r.ledger); serr != nil {
			r.logger.Warn("ledger persist after failed create", "error", serr)
		}
		return false, fmt.Errorf("create collection %s: %w", name, err)
	}

	r.ledger.Collections = append(r.ledger.Collections, CollectionRecord{
		CollectionName: name,
		Description:    description,
		Files:          []FileRecord{},
	})
	r.ledger.clearIntent(name)
	if err := saveLedger(r.path, r.ledger); err != nil {
		return true, err
	}
	r.logger.Info("collection created", "collection", name)
	return true, nil
}

// RemoveCollection drops the collection from the engine and the ledger. It
// returns false with a nil error when the ledger does not know name.
func (r *Registry) RemoveCollection(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ledger.entry(name) == nil {
		return false, nil
	}

	r.ledger.Intents = append(r.ledger.Intents, intent{Op: opRemove, CollectionName: name})
	if err := saveLedger(r.path, r.ledger); err != nil {
		r.ledger.clearIntent(name)
		return false, err
	}

	if err := r.engine.DropCollection(ctx, name); err != nil {
		// Intent stays persisted: the next startup finishes the drop.
		return false, fmt.Errorf("drop collection %s: %w", name, err)
	}

	r.ledger.removeEntry(name)
	r.ledger.clearIntent(name)
	if err := saveLedger(r.path, r.ledger); err != nil {
		return true, err
	}
	r.logger.Info("collection removed", "collection", name)
	return true, nil
}

// Stats returns engine-reported statistics for a ledger-known collection.
// Unknown names yield an empty result without touching the engine.
func (r *Registry) Stats(ctx context.Context, name string) (map[string]any, error) {
	r.mu.Lock()
	known := r.ledger.entry(name) != nil
	r.mu.Unlock()
	if !known {
		return map[string]any{}, nil
	}
	return r.engine.CollectionStats(ctx, name)
}

// Description returns the stored description for a ledger-known collection.
func (r *Registry) Description(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.ledger.entry(name); e != nil {
		return e.Description, true
	}
	return "", false
}

// Files returns the file membership recorded for a collection.
func (r *Registry) Files(name string) ([]FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.ledger.entry(name)
	if e == nil {
		return nil, ErrCollectionNotFound
	}
	out := make([]FileRecord, len(e.Files))
	copy(out, e.Files)
	return out, nil
}

// RecordFile upserts a file's membership record (keyed by path) in a
// collection and persists the ledger.
func (r *Registry) RecordFile(collection string, rec FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.ledger.entry(collection)
	if e == nil {
		return ErrCollectionNotFound
	}
	replaced := false
	for i := range e.Files {
		if e.Files[i].Path == rec.Path {
			e.Files[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		e.Files = append(e.Files, rec)
	}
	return saveLedger(r.path, r.ledger)
}

// RemoveFile deletes a file's membership record from a collection. Rows
// already embedded for the file remain in the engine until the collection
// itself is dropped.
func (r *Registry) RemoveFile(collection, path string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.ledger.entry(collection)
	if e == nil {
		return false, ErrCollectionNotFound
	}
	for i := range e.Files {
		if e.Files[i].Path == path {
			e.Files = append(e.Files[:i], e.Files[i+1:]...)
			return true, saveLedger(r.path, r.ledger)
		}
	}
	return false, nil
}
