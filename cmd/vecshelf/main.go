package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"

	vecshelf "github.com/vecshelf/vecshelf"
	"github.com/vecshelf/vecshelf/drive"
	"github.com/vecshelf/vecshelf/engine/milvus"
	"github.com/vecshelf/vecshelf/ingest"
	"github.com/vecshelf/vecshelf/internal/config"
	"github.com/vecshelf/vecshelf/observer"
	"github.com/vecshelf/vecshelf/provider/gemini"
	"github.com/vecshelf/vecshelf/provider/openai"
)

const usage = `vecshelf ingests documents into vector collections.

Usage:
  vecshelf collections                    list collections
  vecshelf add <name> [description]      create a collection
  vecshelf remove <name>                 drop a collection
  vecshelf stats <name>                  show engine stats for a collection
  vecshelf files <name>                  list a collection's ledger entries
  vecshelf ingest <name> <path>...       ingest local files or drive:// refs
  vecshelf drive-ls <folder-id>          list children of a drive folder

Config is read from vecshelf.toml (override with VECSHELF_CONFIG) and
VECSHELF_* environment variables.`

func main() {
	_ = godotenv.Load()

	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if err := run(context.Background(), flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "vecshelf: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}

	cfg := config.Load(os.Getenv("VECSHELF_CONFIG"))
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	engineClient, err := milvus.New(cfg.Engine.URL, cfg.Engine.Token, milvus.WithLogger(logger))
	if err != nil {
		return err
	}
	defer engineClient.Close()

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}
	provider = vecshelf.WithEmbeddingRetry(provider, vecshelf.RetryLogger(logger))

	var engine vecshelf.Engine = engineClient
	if cfg.Observer.Enabled {
		inst, shutdown, err := observer.Init(ctx)
		if err != nil {
			return fmt.Errorf("observer init: %w", err)
		}
		defer shutdown(context.Background())
		engine = observer.WrapEngine(engine, inst)
		provider = observer.WrapEmbedding(provider, inst)
		logger.Info("observability enabled")
	}

	registry, err := vecshelf.OpenRegistry(ctx, cfg.Ledger.Path, engine, provider.Dimensions(), vecshelf.WithLogger(logger))
	if err != nil {
		return err
	}

	// The default collection always exists.
	if cfg.Ledger.DefaultCollection != "" {
		if _, err := registry.AddCollection(ctx, cfg.Ledger.DefaultCollection, ""); err != nil {
			return fmt.Errorf("bootstrap %s: %w", cfg.Ledger.DefaultCollection, err)
		}
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "collections":
		names := registry.ListCollections()
		sort.Strings(names)
		for _, name := range names {
			desc, _ := registry.Description(name)
			fmt.Printf("%s\t%s\n", name, desc)
		}
		return nil

	case "add":
		if len(rest) < 1 {
			return fmt.Errorf("add: missing collection name")
		}
		desc := ""
		if len(rest) > 1 {
			desc = rest[1]
		}
		created, err := registry.AddCollection(ctx, rest[0], desc)
		if err != nil {
			return err
		}
		if !created {
			fmt.Printf("%s already exists\n", rest[0])
			return nil
		}
		fmt.Printf("created %s\n", rest[0])
		return nil

	case "remove":
		if len(rest) != 1 {
			return fmt.Errorf("remove: expected exactly one collection name")
		}
		removed, err := registry.RemoveCollection(ctx, rest[0])
		if err != nil {
			return err
		}
		if !removed {
			fmt.Printf("%s not found\n", rest[0])
			return nil
		}
		fmt.Printf("removed %s\n", rest[0])
		return nil

	case "stats":
		if len(rest) != 1 {
			return fmt.Errorf("stats: expected exactly one collection name")
		}
		stats, err := registry.Stats(ctx, rest[0])
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(stats))
		for k := range stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s\t%v\n", k, stats[k])
		}
		return nil

	case "files":
		if len(rest) != 1 {
			return fmt.Errorf("files: expected exactly one collection name")
		}
		records, err := registry.Files(rest[0])
		if err != nil {
			return err
		}
		for _, rec := range records {
			fmt.Printf("%s\t%s\t%s\t%s\n", rec.Name, rec.Format, rec.Source, rec.Status)
		}
		return nil

	case "ingest":
		if len(rest) < 2 {
			return fmt.Errorf("ingest: expected a collection name and at least one path")
		}
		return runIngest(ctx, cfg, registry, engine, provider, logger, rest[0], rest[1:])

	case "drive-ls":
		if len(rest) != 1 {
			return fmt.Errorf("drive-ls: expected exactly one folder id")
		}
		source, err := drive.New(ctx, cfg.Drive.CredentialsFile)
		if err != nil {
			return err
		}
		children, err := source.ListChildren(ctx, rest[0])
		if err != nil {
			return err
		}
		for _, f := range children {
			fmt.Printf("%s\t%s\t%s\n", f.ID, f.Name, f.MimeType)
		}
		return nil

	default:
		fmt.Fprintln(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func newProvider(ctx context.Context, cfg config.Config) (vecshelf.EmbeddingProvider, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return openai.New(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions), nil
	case "gemini":
		return gemini.New(ctx, cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func runIngest(ctx context.Context, cfg config.Config, registry *vecshelf.Registry, engine vecshelf.Engine, provider vecshelf.EmbeddingProvider, logger *slog.Logger, collection string, paths []string) error {
	var source vecshelf.RemoteSource
	if needsDrive(paths) {
		s, err := drive.New(ctx, cfg.Drive.CredentialsFile)
		if err != nil {
			return err
		}
		source = s
	}

	ingestor := ingest.NewIngestor(registry, engine, provider, ingest.NewResolver(source),
		ingest.WithChunker(ingest.NewCascadeChunker(
			ingest.WithMaxSize(cfg.Ingest.ChunkSize),
			ingest.WithOverlap(cfg.Ingest.ChunkOverlap),
		)),
		ingest.WithConcurrency(cfg.Ingest.Concurrency),
		ingest.WithFetchAttempts(cfg.Ingest.FetchRetries),
		ingest.WithLogger(logger),
	)

	refs := make([]vecshelf.FileRef, len(paths))
	for i, p := range paths {
		refs[i] = vecshelf.FileRef{Name: filepath.Base(p), Path: p}
	}

	outcomes, err := ingestor.IngestFiles(ctx, collection, refs)
	if err != nil {
		return err
	}

	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
			fmt.Printf("%s\tfailed at %s: %v\n", o.Ref.Name, o.Stage, o.Err)
			continue
		}
		fmt.Printf("%s\tingested (%d chunks)\n", o.Ref.Name, o.Chunks)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(outcomes))
	}
	return nil
}

func needsDrive(paths []string) bool {
	for _, p := range paths {
		if (vecshelf.FileRef{Path: p}).Remote() {
			return true
		}
	}
	return false
}
