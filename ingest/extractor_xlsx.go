package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// extractXLSX serializes an office-open spreadsheet to marker-delimited
// tables, one per worksheet. Shared strings are resolved; formula cells
// contribute their cached value.
func extractXLSX(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", err
	}

	shared, err := xlsxSharedStrings(zr)
	if err != nil {
		return "", err
	}

	var sheets []string
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "xl/worksheets/") && strings.HasSuffix(f.Name, ".xml") {
			sheets = append(sheets, f.Name)
		}
	}
	if len(sheets) == 0 {
		return "", fmt.Errorf("no worksheets found")
	}
	sort.Strings(sheets)

	var text strings.Builder
	for _, name := range sheets {
		data, err := readZipEntry(zr, name)
		if err != nil {
			return "", err
		}
		if err := xlsxWalkSheet(data, shared, &text); err != nil {
			return "", fmt.Errorf("sheet %s: %w", name, err)
		}
	}
	return strings.TrimSpace(text.String()), nil
}

// xlsxSharedStrings reads xl/sharedStrings.xml. The part is optional: a
// workbook with only inline or numeric cells has none.
func xlsxSharedStrings(zr *zip.Reader) ([]string, error) {
	var file *zip.File
	for _, f := range zr.File {
		if f.Name == "xl/sharedStrings.xml" {
			file = f
			break
		}
	}
	if file == nil {
		return nil, nil
	}
	data, err := readZipFile(file)
	if err != nil {
		return nil, fmt.Errorf("read sharedStrings.xml: %w", err)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var strs []string
	var cur strings.Builder
	inSI, inT := false, false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse sharedStrings.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "si":
				inSI = true
				cur.Reset()
			case "t":
				inT = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "si":
				inSI = false
				strs = append(strs, cur.String())
			case "t":
				inT = false
			}
		case xml.CharData:
			if inSI && inT {
				cur.Write(t)
			}
		}
	}
	return strs, nil
}

func xlsxWalkSheet(data []byte, shared []string, text *strings.Builder) error {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		cells    []string
		cellType string
		value    strings.Builder
		inValue  bool
	)

	beginTable(text)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("parse xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "row":
				cells = nil
			case "c":
				cellType = ""
				value.Reset()
				for _, attr := range t.Attr {
					if attr.Name.Local == "t" {
						cellType = attr.Value
					}
				}
			case "v", "t":
				inValue = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "v", "t":
				inValue = false
			case "c":
				cells = append(cells, xlsxCellValue(cellType, value.String(), shared))
			case "row":
				writeTableRow(text, cells)
			}
		case xml.CharData:
			if inValue {
				value.Write(t)
			}
		}
	}
	endTable(text)
	return nil
}

// xlsxCellValue resolves a cell's displayed value. Type "s" indexes the
// shared string table; everything else carries its value inline.
func xlsxCellValue(cellType, raw string, shared []string) string {
	if cellType != "s" {
		return raw
	}
	idx, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || idx < 0 || idx >= len(shared) {
		return raw
	}
	return shared[idx]
}
