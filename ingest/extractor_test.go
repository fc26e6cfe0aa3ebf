package ingest

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Hello world</w:t></w:r></w:p>` +
		`<w:tbl><w:tr>` +
		`<w:tc><w:p><w:r><w:t>A</w:t></w:r></w:p></w:tc>` +
		`<w:tc><w:p><w:r><w:t>B</w:t></w:r></w:p></w:tc>` +
		`</w:tr></w:tbl>` +
		`<w:p><w:r><w:t>After</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	content := buildZip(t, map[string]string{"word/document.xml": doc})

	text, err := extractDOCX(content)
	if err != nil {
		t.Fatalf("extractDOCX: %v", err)
	}

	want := "Hello world\n\n" +
		"<Table>\n<Row>\n<Cell>\nA\n</Cell>\n<Cell>\nB\n</Cell>\n</Row>\n</Table>\n\n" +
		"After"
	if text != want {
		t.Fatalf("got:\n%q\nwant:\n%q", text, want)
	}
}

func TestExtractDOCXSplitRuns(t *testing.T) {
	// Text split across multiple runs in one paragraph must join seamlessly.
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Hel</w:t></w:r><w:r><w:t>lo</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	content := buildZip(t, map[string]string{"word/document.xml": doc})

	text, err := extractDOCX(content)
	if err != nil {
		t.Fatalf("extractDOCX: %v", err)
	}
	if text != "Hello" {
		t.Fatalf("got %q, want %q", text, "Hello")
	}
}

func TestExtractDOCXMissingDocument(t *testing.T) {
	content := buildZip(t, map[string]string{"other.xml": "<x/>"})
	if _, err := extractDOCX(content); err == nil {
		t.Fatal("expected error for zip without word/document.xml")
	}
}

func TestExtractDOCXEmptyContent(t *testing.T) {
	if _, err := extractDOCX(nil); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestExtractCSV(t *testing.T) {
	text, err := extractCSV([]byte("name,age\nada,36\n"))
	if err != nil {
		t.Fatalf("extractCSV: %v", err)
	}
	want := "<Table>\n" +
		"<Row>\n<Cell>\nname\n</Cell>\n<Cell>\nage\n</Cell>\n</Row>\n" +
		"<Row>\n<Cell>\nada\n</Cell>\n<Cell>\n36\n</Cell>\n</Row>\n" +
		"</Table>"
	if text != want {
		t.Fatalf("got:\n%q\nwant:\n%q", text, want)
	}
}

func TestExtractCSVRaggedRows(t *testing.T) {
	if _, err := extractCSV([]byte("a,b,c\nd\n")); err != nil {
		t.Fatalf("ragged rows should parse: %v", err)
	}
}

func TestExtractNotebook(t *testing.T) {
	nb := `{
		"cells": [
			{"cell_type": "markdown", "source": ["# Title\n", "intro text"]},
			{"cell_type": "code", "source": "print('hi')"},
			{"cell_type": "code", "source": []}
		]
	}`
	text, err := extractNotebook([]byte(nb))
	if err != nil {
		t.Fatalf("extractNotebook: %v", err)
	}
	want := "# Title\nintro text\n\nprint('hi')"
	if text != want {
		t.Fatalf("got %q, want %q", text, want)
	}
}

func TestExtractNotebookInvalid(t *testing.T) {
	if _, err := extractNotebook([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid notebook")
	}
}

func TestExtractXLSX(t *testing.T) {
	shared := `<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">` +
		`<si><t>name</t></si><si><t>ada</t></si></sst>`
	sheet := `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>` +
		`<row><c t="s"><v>0</v></c><c><v>42</v></c></row>` +
		`<row><c t="s"><v>1</v></c><c><v>36</v></c></row>` +
		`</sheetData></worksheet>`
	content := buildZip(t, map[string]string{
		"xl/sharedStrings.xml":     shared,
		"xl/worksheets/sheet1.xml": sheet,
		"[Content_Types].xml":      "<Types/>",
	})

	text, err := extractXLSX(content)
	if err != nil {
		t.Fatalf("extractXLSX: %v", err)
	}
	want := "<Table>\n" +
		"<Row>\n<Cell>\nname\n</Cell>\n<Cell>\n42\n</Cell>\n</Row>\n" +
		"<Row>\n<Cell>\nada\n</Cell>\n<Cell>\n36\n</Cell>\n</Row>\n" +
		"</Table>"
	if text != want {
		t.Fatalf("got:\n%q\nwant:\n%q", text, want)
	}
}

func TestExtractXLSXNoWorksheets(t *testing.T) {
	content := buildZip(t, map[string]string{"[Content_Types].xml": "<Types/>"})
	if _, err := extractXLSX(content); err == nil {
		t.Fatal("expected error for workbook without worksheets")
	}
}

func TestExtractPPTX(t *testing.T) {
	slide1 := `<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" ` +
		`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">` +
		`<p:cSld><p:spTree><p:sp><p:txBody>` +
		`<a:p><a:r><a:t>Title</a:t></a:r></a:p>` +
		`<a:p><a:r><a:t>First </a:t></a:r><a:r><a:t>point</a:t></a:r></a:p>` +
		`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
	slide2 := `<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" ` +
		`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">` +
		`<p:cSld><p:spTree><p:sp><p:txBody>` +
		`<a:p><a:r><a:t>Second slide</a:t></a:r></a:p>` +
		`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
	content := buildZip(t, map[string]string{
		"ppt/slides/slide1.xml": slide1,
		"ppt/slides/slide2.xml": slide2,
	})

	text, err := extractPPTX(content)
	if err != nil {
		t.Fatalf("extractPPTX: %v", err)
	}
	want := "Title\nFirst point\n\nSecond slide"
	if text != want {
		t.Fatalf("got %q, want %q", text, want)
	}
}

func TestExtractPPTXNoSlides(t *testing.T) {
	content := buildZip(t, map[string]string{"ppt/presentation.xml": "<p/>"})
	if _, err := extractPPTX(content); err == nil {
		t.Fatal("expected error for deck without slides")
	}
}

func TestFormatExtractDispatch(t *testing.T) {
	text, err := FormatTXT.Extract([]byte("plain"))
	if err != nil || text != "plain" {
		t.Fatalf("txt extract = %q, %v", text, err)
	}

	// Cloud-native formats extract via their exported binary form.
	csvText, err := FormatGSheet.Extract([]byte("a,b\n"))
	if err != nil || !strings.Contains(csvText, "<Cell>\na\n</Cell>") {
		t.Fatalf("gsheet extract = %q, %v", csvText, err)
	}
}
