package ingest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// maxZipEntrySize limits decompressed size of individual zip entries
// to prevent zip bomb attacks (100 MB).
const maxZipEntrySize = 100 << 20

func openZip(content []byte) (*zip.Reader, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("empty document content")
	}
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	return zr, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	lr := io.LimitReader(rc, maxZipEntrySize+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if len(data) > maxZipEntrySize {
		return nil, fmt.Errorf("zip entry %s exceeds %d byte limit", f.Name, maxZipEntrySize)
	}
	return data, nil
}

func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			data, err := readZipFile(f)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			return data, nil
		}
	}
	return nil, fmt.Errorf("missing %s", name)
}

// Table serialization markers. Tabular content is wrapped in explicit
// structural markers so the chunker cannot silently merge text from
// unrelated cells.

func beginTable(b *strings.Builder) { b.WriteString("<Table>\n") }
func endTable(b *strings.Builder)   { b.WriteString("</Table>\n\n") }

func writeTableRow(b *strings.Builder, cells []string) {
	b.WriteString("<Row>\n")
	for _, c := range cells {
		b.WriteString("<Cell>\n")
		b.WriteString(c)
		b.WriteString("\n</Cell>\n")
	}
	b.WriteString("</Row>\n")
}
