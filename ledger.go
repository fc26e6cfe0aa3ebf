package vecshelf

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// ledger is the persisted metadata journal mapping each collection name to
// its file membership, plus write-ahead intents for in-flight catalog
// mutations.
//
// The file is rewritten in full on every mutation. A crash mid-write can
// leave a missing or truncated file; loading recovers by resetting to an
// empty ledger instead of refusing to start. That trade-off — availability
// over metadata durability — is deliberate and relied upon by callers.
type ledger struct {
	Collections []CollectionRecord `json:"collections"`
	Intents     []intent           `json:"intents,omitempty"`
}

// intent records a catalog mutation before the engine is touched, so an
// interrupted operation can be completed or rolled back on the next startup.
type intent struct {
	Op             string `json:"op"` // "create" or "remove"
	CollectionName string `json:"collection_name"`
	Description    string `json:"description,omitempty"`
}

const (
	opCreate = "create"
	opRemove = "remove"
)

// loadLedger reads the ledger file. A missing file yields an empty ledger; a
// file that fails to decode also yields an empty ledger, logged at WARN and
// never surfaced as an error.
func loadLedger(path string, logger *slog.Logger) ledger {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("ledger unreadable, starting empty", "path", path, "error", err)
		}
		return ledger{}
	}
	var l ledger
	if err := json.Unmarshal(data, &l); err != nil {
		logger.Warn("ledger corrupt, resetting to empty", "path", path, "error", err)
		return ledger{}
	}
	return l
}

// saveLedger rewrites the whole ledger file in place.
func saveLedger(path string, l ledger) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}

// entry returns a pointer into l.Collections for name, or nil.
func (l *ledger) entry(name string) *CollectionRecord {
	for i := range l.Collections {
		if l.Collections[i].CollectionName == name {
			return &l.Collections[i]
		}
	}
	return nil
}

// removeEntry deletes name from l.Collections, reporting whether it existed.
func (l *ledger) removeEntry(name string) bool {
	for i := range l.Collections {
		if l.Collections[i].CollectionName == name {
			l.Collections = append(l.Collections[:i], l.Collections[i+1:]...)
			return true
		}
	}
	return false
}

// clearIntent removes the intent for name, if any.
func (l *ledger) clearIntent(name string) {
	for i := range l.Intents {
		if l.Intents[i].CollectionName == name {
			l.Intents = append(l.Intents[:i], l.Intents[i+1:]...)
			return
		}
	}
}
