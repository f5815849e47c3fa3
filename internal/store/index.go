package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"sort"
)

// Index maintains the list of dates for which a day file exists, persisted
// as a JSON array sorted descending (most recent first). The index only
// grows; no removal operation exists.
type Index struct {
	path   string
	logger *slog.Logger
}

// NewIndex creates an Index persisted at path.
func NewIndex(path string, logger *slog.Logger) *Index {
	return &Index{path: path, logger: logger}
}

// Dates returns the persisted dates. A missing or malformed file degrades
// to an empty index.
func (ix *Index) Dates() []string {
	data, err := os.ReadFile(ix.path)
	if err != nil {
		if !os.IsNotExist(err) {
			ix.logger.Warn("unreadable day index, treating as empty", "path", ix.path, "error", err)
		}
		return nil
	}

	var dates []string
	if err := json.Unmarshal(data, &dates); err != nil {
		ix.logger.Warn("malformed day index, treating as empty", "path", ix.path, "error", err)
		return nil
	}
	return dates
}

// Register adds date to the index if absent, re-sorts descending, and
// persists. Registering an already-present date is a no-op.
func (ix *Index) Register(date string) error {
	dates := ix.Dates()
	for _, d := range dates {
		if d == date {
			return nil
		}
	}

	dates = append(dates, date)
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return writeJSONAtomic(ix.path, dates)
}
