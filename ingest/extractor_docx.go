package ingest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDOCX serializes a word-processor document to plain text by
// streaming OOXML tokens, without loading the full DOM tree into memory.
// Body paragraphs are appended verbatim followed by a blank line; tables
// are wrapped in structural markers.
func extractDOCX(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", err
	}
	data, err := readZipEntry(zr, "word/document.xml")
	if err != nil {
		return "", err
	}
	return docxWalk(data)
}

// docxParseState tracks the streaming XML decoder state.
type docxParseState struct {
	text strings.Builder

	inRun      bool
	tableDepth int
	paragraph  strings.Builder
	cellParas  []string
	rowCells   []string
}

func docxWalk(data []byte) (string, error) {
	s := &docxParseState{}
	dec := xml.NewDecoder(bytes.NewReader(data))

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			s.handleStart(t)
		case xml.EndElement:
			s.handleEnd(t)
		case xml.CharData:
			s.handleCharData(t)
		}
	}

	return strings.TrimSpace(s.text.String()), nil
}

func (s *docxParseState) handleStart(t xml.StartElement) {
	switch t.Name.Local {
	case "p":
		s.paragraph.Reset()
	case "r":
		s.inRun = true
	case "tbl":
		s.tableDepth++
		if s.tableDepth == 1 {
			beginTable(&s.text)
		}
	case "tr":
		s.rowCells = nil
	case "tc":
		s.cellParas = nil
	}
}

func (s *docxParseState) handleEnd(t xml.EndElement) {
	switch t.Name.Local {
	case "r":
		s.inRun = false
	case "p":
		if s.tableDepth > 0 {
			s.cellParas = append(s.cellParas, s.paragraph.String())
			return
		}
		s.text.WriteString(s.paragraph.String())
		s.text.WriteString("\n\n")
	case "tc":
		s.rowCells = append(s.rowCells, strings.Join(s.cellParas, "\n"))
	case "tr":
		if s.tableDepth > 0 {
			writeTableRow(&s.text, s.rowCells)
		}
	case "tbl":
		s.tableDepth--
		if s.tableDepth == 0 {
			endTable(&s.text)
		}
	}
}

func (s *docxParseState) handleCharData(data xml.CharData) {
	if s.inRun {
		s.paragraph.Write(data)
	}
}
