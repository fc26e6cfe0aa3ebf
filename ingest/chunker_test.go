package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitFourSentences(t *testing.T) {
	chunks := Split("a.b.c.d", 3, 0)

	want := []string{"a", ".b", ".c", ".d"}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks %v, want %d", len(chunks), chunks, len(want))
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk[%d] = %q, want %q", i, chunks[i], want[i])
		}
		if utf8.RuneCountInString(chunks[i]) > 3 {
			t.Errorf("chunk[%d] = %q exceeds size limit", i, chunks[i])
		}
	}
	if got := strings.Join(chunks, ""); got != "a.b.c.d" {
		t.Errorf("concatenation = %q, does not reconstruct input", got)
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	chunks := Split("short text", 500, 0)
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("got %v, want the input unchanged", chunks)
	}
}

func TestSplitEmpty(t *testing.T) {
	if chunks := Split("", 500, 0); chunks != nil {
		t.Fatalf("got %v, want nil", chunks)
	}
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	text := "first paragraph\n\nsecond paragraph"
	chunks := Split(text, 20, 0)
	want := []string{"first paragraph", "\n\nsecond paragraph"}
	if len(chunks) != 2 || chunks[0] != want[0] || chunks[1] != want[1] {
		t.Fatalf("got %v, want %v", chunks, want)
	}
}

func TestSplitDescendsCascade(t *testing.T) {
	// Both period-level pieces exceed the limit, so each recurses to the
	// space separator.
	chunks := Split("aa bb.cc dd", 4, 0)
	want := []string{"aa", " bb", ".cc", " dd"}
	if len(chunks) != len(want) {
		t.Fatalf("got %v, want %v", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk[%d] = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSplitIdeographicStop(t *testing.T) {
	text := "一二三。四五六。七八九"
	chunks := Split(text, 4, 0)
	want := []string{"一二三", "。四五六", "。七八九"}
	if len(chunks) != len(want) {
		t.Fatalf("got %v, want %v", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk[%d] = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSplitRuneFallback(t *testing.T) {
	// No separator appears anywhere, so splitting is rune-level. Multi-byte
	// runes must not be torn apart.
	text := strings.Repeat("é", 10)
	chunks := Split(text, 3, 0)
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks %v, want 4", len(chunks), chunks)
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk[%d] = %q is not valid UTF-8", i, c)
		}
	}
	if got := strings.Join(chunks, ""); got != text {
		t.Errorf("concatenation = %q, does not reconstruct input", got)
	}
}

func TestSplitReconstruction(t *testing.T) {
	texts := []string{
		"The quick brown fox jumps over the lazy dog. Pack my box with five dozen liquor jugs.\n\nSphinx of black quartz, judge my vow.",
		"one,two,three,four,five,six,seven,eight,nine,ten",
		"líne one\nlíne two\nlíne three\nlíne four",
	}
	for _, text := range texts {
		for _, maxSize := range []int{5, 12, 40} {
			chunks := Split(text, maxSize, 0)
			if got := strings.Join(chunks, ""); got != text {
				t.Errorf("Split(%q, %d) chunks %v do not reconstruct input", text, maxSize, chunks)
			}
			for i, c := range chunks {
				if utf8.RuneCountInString(c) > maxSize {
					t.Errorf("Split(%q, %d) chunk[%d] = %q exceeds limit", text, maxSize, i, c)
				}
			}
		}
	}
}

func TestSplitOverlap(t *testing.T) {
	chunks := Split("abcdef", 2, 1)
	want := []string{"ab", "bcd", "def"}
	if len(chunks) != len(want) {
		t.Fatalf("got %v, want %v", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk[%d] = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestCascadeChunkerOptions(t *testing.T) {
	c := NewCascadeChunker(WithMaxSize(3), WithOverlap(0))
	chunks := c.Chunk("a.b.c.d")
	if len(chunks) != 4 {
		t.Fatalf("got %v, want 4 chunks", chunks)
	}

	d := NewCascadeChunker()
	if got := d.Chunk("short"); len(got) != 1 {
		t.Fatalf("default chunker split a short string: %v", got)
	}
}
