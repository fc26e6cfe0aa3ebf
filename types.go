package vecshelf

// --- Domain types (ledger records) ---

// SourceKind identifies where a file's bytes come from.
type SourceKind string

const (
	SourceLocal SourceKind = "local"
	SourceDrive SourceKind = "drive"
)

// FileStatus is the ingestion status recorded for a file in the ledger.
type FileStatus string

const (
	StatusPending  FileStatus = "pending"
	StatusIngested FileStatus = "ingested"
	StatusFailed   FileStatus = "failed"
)

// FileRef identifies a source document to ingest. Path is either a local
// filesystem path or a remote reference of the form drive://file/<id>.
// Name carries the display filename whose extension drives format dispatch.
type FileRef struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Remote reports whether the reference points at the remote drive source.
func (r FileRef) Remote() bool {
	return len(r.Path) > len(driveScheme) && r.Path[:len(driveScheme)] == driveScheme
}

// RemoteID returns the drive object id encoded in the path
// (drive://<kind>/<id>), or "" for local references.
func (r FileRef) RemoteID() string {
	if !r.Remote() {
		return ""
	}
	p := r.Path[len(driveScheme):]
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}

const driveScheme = "drive://"

// FileRecord is a file's ledger entry inside one collection. A record is
// owned by exactly one collection; re-ingesting the same source into another
// collection creates an independent record.
type FileRecord struct {
	Path   string     `json:"path"`
	Name   string     `json:"name"`
	Source SourceKind `json:"source"`
	Format string     `json:"format"`
	Status FileStatus `json:"status"`
}

// CollectionRecord is one collection's ledger entry.
type CollectionRecord struct {
	CollectionName string       `json:"collection_name"`
	Description    string       `json:"description,omitempty"`
	Files          []FileRecord `json:"files"`
}

// --- Engine types ---

// Row is the persisted unit inside the vector engine: chunk text plus its
// embedding. The engine assigns the row id.
type Row struct {
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

// CollectionSchema describes the fixed per-collection engine schema: an
// auto-assigned int64 primary id, a bounded-length text field, and a
// fixed-dimension float-vector field carrying a cosine-similarity index.
type CollectionSchema struct {
	Description   string
	Dimension     int
	MaxTextLength int
}

// DefaultMaxTextLength bounds the engine-side text field. Chunks are capped
// well below this by the chunker, but multi-byte text can expand.
const DefaultMaxTextLength = 2048

// RemoteFile describes one child of a remote drive folder.
type RemoteFile struct {
	ID       string
	Name     string
	MimeType string
}
