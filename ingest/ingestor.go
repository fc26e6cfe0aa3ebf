package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	vecshelf "github.com/vecshelf/vecshelf"
)

// Stage identifies a pipeline stage. Stages run strictly in order for each
// file; a failed outcome names the stage that failed.
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageChunk  Stage = "chunk"
	StageEmbed  Stage = "embed"
	StageInsert Stage = "insert"
	StageDone   Stage = "done"
)

// FileOutcome reports one file's pipeline result. Err is nil exactly when
// Stage is StageDone.
type FileOutcome struct {
	Ref    vecshelf.FileRef
	Stage  Stage
	Chunks int
	Err    error
}

// Failed reports whether the file's pipeline run failed.
func (o FileOutcome) Failed() bool { return o.Err != nil }

// Ingestor drives the per-file pipeline fetch, chunk, embed, insert for
// batches of files targeting one collection. Files in a batch are processed
// concurrently up to a bounded limit; a failing file never aborts its
// siblings.
type Ingestor struct {
	registry    *vecshelf.Registry
	engine      vecshelf.Engine
	provider    vecshelf.EmbeddingProvider
	resolver    *Resolver
	chunker     Chunker
	concurrency int
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithChunker replaces the default cascade chunker.
func WithChunker(c Chunker) Option {
	return func(i *Ingestor) { i.chunker = c }
}

// WithConcurrency bounds how many files are processed at once (default: 4).
func WithConcurrency(n int) Option {
	return func(i *Ingestor) { i.concurrency = n }
}

// WithFetchAttempts sets the maximum fetch attempts per file for transient
// failures (default: 3).
func WithFetchAttempts(n int) Option {
	return func(i *Ingestor) { i.maxAttempts = n }
}

// WithFetchBaseDelay sets the initial backoff delay between fetch attempts
// (default: 1s).
func WithFetchBaseDelay(d time.Duration) Option {
	return func(i *Ingestor) { i.baseDelay = d }
}

// WithLogger sets a structured logger for pipeline events.
func WithLogger(l *slog.Logger) Option {
	return func(i *Ingestor) { i.logger = l }
}

// NewIngestor creates an Ingestor with the given collaborators.
func NewIngestor(registry *vecshelf.Registry, engine vecshelf.Engine, provider vecshelf.EmbeddingProvider, resolver *Resolver, opts ...Option) *Ingestor {
	ing := &Ingestor{
		registry:    registry,
		engine:      engine,
		provider:    provider,
		resolver:    resolver,
		chunker:     NewCascadeChunker(),
		concurrency: 4,
		maxAttempts: 3,
		baseDelay:   time.Second,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(ing)
	}
	return ing
}

// IngestFiles runs the pipeline for each ref against one collection and
// returns a per-file outcome list in input order. Per-file failures are
// recorded in the outcome and in the ledger, never propagated as a batch
// error. The batch error is non-nil only when the batch could not start at
// all.
func (ing *Ingestor) IngestFiles(ctx context.Context, collection string, refs []vecshelf.FileRef) ([]FileOutcome, error) {
	if !ing.registry.HasCollection(collection) {
		return nil, fmt.Errorf("ingest into %s: %w", collection, vecshelf.ErrCollectionNotFound)
	}

	batchID := vecshelf.NewID()
	ing.logger.Info("ingest batch start", "batch", batchID, "collection", collection, "files", len(refs))

	outcomes := make([]FileOutcome, len(refs))
	var g errgroup.Group
	g.SetLimit(ing.concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			// Cancellation takes effect at file boundaries only.
			if err := ctx.Err(); err != nil {
				outcomes[i] = FileOutcome{Ref: ref, Stage: StageFetch, Err: err}
				return nil
			}
			outcomes[i] = ing.ingestOne(ctx, collection, ref)
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
	}
	ing.logger.Info("ingest batch done", "batch", batchID, "collection", collection, "failed", failed)
	return outcomes, nil
}

func (ing *Ingestor) ingestOne(ctx context.Context, collection string, ref vecshelf.FileRef) FileOutcome {
	rec := vecshelf.FileRecord{
		Path:   ref.Path,
		Name:   ref.Name,
		Source: vecshelf.SourceLocal,
		Status: vecshelf.StatusPending,
	}
	if ref.Remote() {
		rec.Source = vecshelf.SourceDrive
	}
	if format, err := FormatFromPath(ref.Name); err == nil {
		rec.Format = format.String()
	}

	content, format, err := ing.fetch(ctx, ref)
	if err != nil {
		return ing.fail(collection, rec, ref, StageFetch, err)
	}

	text, err := format.Extract(content)
	if err != nil {
		return ing.fail(collection, rec, ref, StageChunk, fmt.Errorf("extract %s: %w", ref.Name, err))
	}
	chunks := ing.chunker.Chunk(text)

	if len(chunks) > 0 {
		vectors, err := ing.provider.Embed(ctx, chunks)
		if err != nil {
			return ing.fail(collection, rec, ref, StageEmbed, err)
		}
		if len(vectors) != len(chunks) {
			err := fmt.Errorf("embed %s: got %d vectors for %d chunks", ref.Name, len(vectors), len(chunks))
			return ing.fail(collection, rec, ref, StageEmbed, err)
		}

		rows := make([]vecshelf.Row, len(chunks))
		for i := range chunks {
			rows[i] = vecshelf.Row{Text: chunks[i], Vector: vectors[i]}
		}

		// A file that reached insertion finishes even if the batch is
		// cancelled, so the engine rows never lack a ledger record.
		inserted, err := ing.engine.Insert(context.WithoutCancel(ctx), collection, rows)
		if err != nil {
			return ing.fail(collection, rec, ref, StageInsert, err)
		}
		if inserted != len(rows) {
			err := &vecshelf.InsertMismatchError{Collection: collection, Submitted: len(rows), Inserted: inserted}
			return ing.fail(collection, rec, ref, StageInsert, err)
		}
	}

	rec.Status = vecshelf.StatusIngested
	if err := ing.registry.RecordFile(collection, rec); err != nil {
		return FileOutcome{Ref: ref, Stage: StageInsert, Chunks: len(chunks), Err: err}
	}
	ing.logger.Info("file ingested",
		"collection", collection,
		"file", ref.Name,
		"chunks", len(chunks))
	return FileOutcome{Ref: ref, Stage: StageDone, Chunks: len(chunks)}
}

// fetch resolves a file's bytes, retrying transient failures up to the
// configured attempt count. Unsupported formats fail on the first attempt.
func (ing *Ingestor) fetch(ctx context.Context, ref vecshelf.FileRef) ([]byte, Format, error) {
	var lastErr error
	for attempt := 0; attempt < ing.maxAttempts; attempt++ {
		content, format, err := ing.resolver.Resolve(ctx, ref)
		if err == nil {
			return content, format, nil
		}
		if !vecshelf.Retryable(err) {
			return nil, 0, err
		}
		lastErr = err
		if attempt < ing.maxAttempts-1 {
			ing.logger.Warn("retrying fetch",
				"file", ref.Name,
				"attempt", attempt+1,
				"max_attempts", ing.maxAttempts,
				"error", err)
			if serr := sleepCtx(ctx, vecshelf.RetryDelay(ing.baseDelay, attempt, err)); serr != nil {
				return nil, 0, serr
			}
		}
	}
	return nil, 0, lastErr
}

// fail records the file as failed in the ledger and builds its outcome.
func (ing *Ingestor) fail(collection string, rec vecshelf.FileRecord, ref vecshelf.FileRef, stage Stage, err error) FileOutcome {
	rec.Status = vecshelf.StatusFailed
	if rerr := ing.registry.RecordFile(collection, rec); rerr != nil {
		ing.logger.Error("recording failed file", "file", ref.Name, "error", rerr)
	}
	ing.logger.Warn("file failed",
		"collection", collection,
		"file", ref.Name,
		"stage", string(stage),
		"error", err)
	return FileOutcome{Ref: ref, Stage: stage, Err: err}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
