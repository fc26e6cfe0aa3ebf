package ingest

import "strings"

// Chunker splits text into chunks suitable for embedding.
type Chunker interface {
	Chunk(text string) []string
}

// separators is the cascade tried from most to least specific. The empty
// string terminates the cascade with rune-level splitting, which guarantees
// termination for any input. The order is fixed: chunk boundaries must be
// reproducible across runs.
var separators = []string{
	".\n\n",
	"\n\n",
	".\n",
	"\n",
	".",
	",",
	" ",
	"​", // zero-width space
	"，", // fullwidth comma
	"、", // ideographic comma
	"．", // fullwidth full stop
	"。", // ideographic full stop
	"",
}

// --- ChunkerOption for configuring chunkers ---

// ChunkerOption configures a chunker implementation.
type ChunkerOption func(*chunkerConfig)

type chunkerConfig struct {
	maxSize int
	overlap int
}

func defaultChunkerConfig() chunkerConfig {
	return chunkerConfig{maxSize: 500, overlap: 0}
}

// WithMaxSize sets the maximum chunk size in runes.
func WithMaxSize(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.maxSize = n }
}

// WithOverlap sets how many trailing runes of one chunk are repeated as the
// head of the next, for context continuity across chunk boundaries.
func WithOverlap(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.overlap = n }
}

// --- CascadeChunker ---

// CascadeChunker splits text with a recursive separator cascade. Each level
// splits on one separator, keeping the separator attached to the start of the
// following piece; pieces still over the size limit recurse with the next
// separator. With zero overlap the chunks are strictly disjoint and
// concatenating them reconstructs the input exactly.
type CascadeChunker struct {
	maxSize int
	overlap int
}

// NewCascadeChunker creates a CascadeChunker with the given options.
// Defaults: 500-rune chunks, no overlap.
func NewCascadeChunker(opts ...ChunkerOption) *CascadeChunker {
	cfg := defaultChunkerConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &CascadeChunker{maxSize: cfg.maxSize, overlap: cfg.overlap}
}

// Chunk splits text into chunks of at most the configured size.
func (c *CascadeChunker) Chunk(text string) []string {
	return Split(text, c.maxSize, c.overlap)
}

// Split cuts text into chunks of at most maxSize runes using the separator
// cascade. overlap trailing runes of each chunk are prepended to the next.
func Split(text string, maxSize, overlap int) []string {
	if text == "" || maxSize <= 0 {
		return nil
	}
	chunks := splitCascade(text, maxSize, separators)
	if overlap <= 0 || len(chunks) < 2 {
		return chunks
	}
	out := make([]string, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		out[i] = tailRunes(chunks[i-1], overlap) + chunks[i]
	}
	return out
}

func splitCascade(text string, maxSize int, seps []string) []string {
	if text == "" {
		return nil
	}
	if runeLen(text) <= maxSize {
		return []string{text}
	}

	sep := seps[0]
	if sep == "" {
		return splitRunes(text, maxSize)
	}
	if !strings.Contains(text, sep) {
		return splitCascade(text, maxSize, seps[1:])
	}

	var out []string
	for _, piece := range splitKeepSeparator(text, sep) {
		if runeLen(piece) <= maxSize {
			out = append(out, piece)
		} else {
			// The piece may start with sep itself, so descend to the next
			// separator rather than looping on this one.
			out = append(out, splitCascade(piece, maxSize, seps[1:])...)
		}
	}
	return out
}

// splitKeepSeparator splits text on sep, attaching each separator occurrence
// to the start of the piece that follows it. Concatenating the pieces yields
// text unchanged.
func splitKeepSeparator(text, sep string) []string {
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i == 0 {
			if p != "" {
				out = append(out, p)
			}
			continue
		}
		out = append(out, sep+p)
	}
	return out
}

// splitRunes is the character-level fallback.
func splitRunes(text string, maxSize int) []string {
	runes := []rune(text)
	out := make([]string, 0, (len(runes)+maxSize-1)/maxSize)
	for i := 0; i < len(runes); i += maxSize {
		end := i + maxSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
