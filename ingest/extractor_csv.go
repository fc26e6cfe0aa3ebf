package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// extractCSV serializes a delimited table with structural markers, one row
// per record. Cloud-native spreadsheets arrive here too, exported server-side
// as CSV.
func extractCSV(content []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1 // ragged rows are common in exported sheets

	var text strings.Builder
	beginTable(&text)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse csv: %w", err)
		}
		writeTableRow(&text, record)
	}
	endTable(&text)
	return strings.TrimSpace(text.String()), nil
}
