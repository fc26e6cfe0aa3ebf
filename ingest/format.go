package ingest

import (
	"path/filepath"
	"strings"

	vecshelf "github.com/vecshelf/vecshelf"
)

// Format is the closed enumeration of ingestible document formats. Dispatch
// is by file extension only; anything outside the enumeration is rejected
// before any disk or network I/O. Adding a format means adding a variant
// here and a case in each switch below.
type Format int

const (
	FormatTXT     Format = iota // plain text
	FormatGDoc                  // cloud-native word-processor document
	FormatDOCX                  // word-processor binary
	FormatPDF                   // PDF
	FormatGSheet                // cloud-native spreadsheet
	FormatGSlides               // cloud-native presentation
	FormatIPYNB                 // notebook document
	FormatXLSX                  // office-open spreadsheet
	FormatPPTX                  // presentation binary
	FormatCSV                   // delimited table
)

// MIME types used for server-side export of cloud-native formats.
const (
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimeCSV  = "text/csv"
)

var formatByExt = map[string]Format{
	".txt":     FormatTXT,
	".gdoc":    FormatGDoc,
	".docx":    FormatDOCX,
	".pdf":     FormatPDF,
	".gsheet":  FormatGSheet,
	".gslides": FormatGSlides,
	".ipynb":   FormatIPYNB,
	".xlsx":    FormatXLSX,
	".pptx":    FormatPPTX,
	".csv":     FormatCSV,
}

// FormatFromPath derives a file's format from its name's extension. Unknown
// extensions return UnsupportedFormatError.
func FormatFromPath(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	f, ok := formatByExt[ext]
	if !ok {
		return 0, &vecshelf.UnsupportedFormatError{Name: name, Ext: ext}
	}
	return f, nil
}

func (f Format) String() string {
	switch f {
	case FormatTXT:
		return "txt"
	case FormatGDoc:
		return "gdoc"
	case FormatDOCX:
		return "docx"
	case FormatPDF:
		return "pdf"
	case FormatGSheet:
		return "gsheet"
	case FormatGSlides:
		return "gslides"
	case FormatIPYNB:
		return "ipynb"
	case FormatXLSX:
		return "xlsx"
	case FormatPPTX:
		return "pptx"
	case FormatCSV:
		return "csv"
	}
	return "unknown"
}

// ExportMIME returns the server-side export target for cloud-native formats.
// ok is false for formats fetched by direct download.
func (f Format) ExportMIME() (mime string, ok bool) {
	switch f {
	case FormatGDoc:
		return mimeDOCX, true
	case FormatGSheet:
		return mimeCSV, true
	case FormatGSlides:
		return mimePPTX, true
	}
	return "", false
}

// Extract converts a raw byte stream of this format into plain text.
// Cloud-native formats are extracted in their exported binary form.
func (f Format) Extract(content []byte) (string, error) {
	switch f {
	case FormatTXT:
		return string(content), nil
	case FormatGDoc, FormatDOCX:
		return extractDOCX(content)
	case FormatPDF:
		return extractPDF(content)
	case FormatGSheet, FormatCSV:
		return extractCSV(content)
	case FormatGSlides, FormatPPTX:
		return extractPPTX(content)
	case FormatIPYNB:
		return extractNotebook(content)
	case FormatXLSX:
		return extractXLSX(content)
	}
	return "", &vecshelf.UnsupportedFormatError{Ext: f.String()}
}
