// Package vecshelf ingests heterogeneous documents into named, independently
// searchable vector collections, and keeps a persisted metadata ledger
// consistent with the vector engine's actual collection catalog.
//
// # Quick Start
//
//	engine, err := milvus.New(engineURL, token)
//	embedding := vecshelf.WithEmbeddingRetry(openai.New(apiKey, model, 1024))
//	reg, err := vecshelf.OpenRegistry(ctx, ledgerPath, engine, embedding.Dimensions())
//
//	remote, err := drive.New(ctx, credentialsFile)
//	ing := ingest.NewIngestor(reg, engine, embedding, ingest.NewResolver(remote))
//
//	created, err := reg.AddCollection(ctx, "papers", "Research papers.")
//	outcomes, err := ing.IngestFiles(ctx, "papers", refs)
//
// # Core Interfaces
//
// The root package defines the contracts that all components implement:
//
//   - [Engine] — the vector engine collaborator (create/drop/insert/stats)
//   - [EmbeddingProvider] — text-to-vector embedding
//   - [RemoteSource] — remote document source (list/download/export)
//
// # Included Implementations
//
// Engines: engine/milvus (Milvus RESTful v2).
// Embeddings: provider/openai, provider/gemini.
// Remote sources: drive (Google Drive).
//
// See the cmd/vecshelf directory for a complete reference CLI.
package vecshelf
