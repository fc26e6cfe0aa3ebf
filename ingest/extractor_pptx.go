package ingest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// extractPPTX extracts the text runs of every slide in a presentation deck.
// Each text paragraph becomes one line; slides are separated by a blank line.
func extractPPTX(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", err
	}

	var slides []string
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f.Name)
		}
	}
	if len(slides) == 0 {
		return "", fmt.Errorf("no slides found")
	}
	sort.Strings(slides)

	var text strings.Builder
	for _, name := range slides {
		data, err := readZipEntry(zr, name)
		if err != nil {
			return "", err
		}
		slideText, err := pptxWalkSlide(data)
		if err != nil {
			return "", fmt.Errorf("slide %s: %w", name, err)
		}
		if slideText == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(slideText)
	}
	return text.String(), nil
}

func pptxWalkSlide(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		text      strings.Builder
		paragraph strings.Builder
		inT       bool
	)

	flush := func() {
		p := strings.TrimSpace(paragraph.String())
		paragraph.Reset()
		if p == "" {
			return
		}
		if text.Len() > 0 {
			text.WriteByte('\n')
		}
		text.WriteString(p)
	}

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
			if t.Name.Local == "t" {
				inT = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inT = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inT {
				paragraph.Write(t)
			}
		}
	}
	flush()
	return text.String(), nil
}
