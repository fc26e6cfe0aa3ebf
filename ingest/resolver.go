package ingest

import (
	"context"
	"fmt"
	"os"

	vecshelf "github.com/vecshelf/vecshelf"
)

// Resolver obtains a file's raw bytes, dispatching remote references to the
// correct server-side export or direct download strategy.
type Resolver struct {
	source vecshelf.RemoteSource
}

// NewResolver creates a Resolver. source may be nil when only local files
// are ingested; remote references then fail without retry.
func NewResolver(source vecshelf.RemoteSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns a file's raw bytes and its format. The format check runs
// before any disk or network I/O: an unsupported extension fails fast and is
// never retried. Fetch failures are wrapped in FetchError and are eligible
// for retry.
func (r *Resolver) Resolve(ctx context.Context, ref vecshelf.FileRef) ([]byte, Format, error) {
	format, err := FormatFromPath(ref.Name)
	if err != nil {
		return nil, 0, err
	}

	if !ref.Remote() {
		data, err := os.ReadFile(ref.Path)
		if err != nil {
			return nil, 0, &vecshelf.FetchError{Ref: ref.Path, Err: err}
		}
		return data, format, nil
	}

	if r.source == nil {
		return nil, 0, fmt.Errorf("remote reference %s: no remote source configured", ref.Path)
	}

	id := ref.RemoteID()
	var data []byte
	if mime, ok := format.ExportMIME(); ok {
		data, err = r.source.Export(ctx, id, mime)
	} else {
		data, err = r.source.Download(ctx, id)
	}
	if err != nil {
		return nil, 0, &vecshelf.FetchError{Ref: ref.Path, Err: err}
	}
	return data, format, nil
}
