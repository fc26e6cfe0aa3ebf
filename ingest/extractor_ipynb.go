package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// notebookDoc mirrors the notebook JSON container. Cell source is either a
// single string or a list of line strings depending on the producing tool.
type notebookDoc struct {
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
}

// extractNotebook joins the source of every markdown, code and raw cell,
// separating cells with a blank line.
func extractNotebook(content []byte) (string, error) {
	var doc notebookDoc
	if err := json.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("parse notebook: %w", err)
	}

	var text strings.Builder
	for _, cell := range doc.Cells {
		src, err := notebookSource(cell.Source)
		if err != nil {
			return "", err
		}
		src = strings.TrimRight(src, "\n")
		if src == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(src)
	}
	return text.String(), nil
}

func notebookSource(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, ""), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("parse cell source: %w", err)
	}
	return s, nil
}
