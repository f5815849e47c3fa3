package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/eneamap/outage-data-etl/internal/domain"
)

// DayStore loads, merges, and persists the record set for one calendar date.
// Merging deduplicates by record identity, so re-ingesting the same source
// data is a no-op.
type DayStore struct {
	dir    string
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewDayStore creates a DayStore over dir (one JSON file per date).
func NewDayStore(dir string, clock clockwork.Clock, logger *slog.Logger) *DayStore {
	return &DayStore{dir: dir, clock: clock, logger: logger}
}

// Path returns the file path for a date ("YYYY-MM-DD").
func (s *DayStore) Path(date string) string {
	return filepath.Join(s.dir, date+".json")
}

// Load returns the persisted day file for date. A missing or malformed file
// degrades to an empty shell; corruption must not abort the run.
func (s *DayStore) Load(date string) domain.DayFile {
	df, _ := s.load(date)
	return df
}

// load additionally reports whether a file is present on disk, so Merge can
// tell an absent day apart from an empty one.
func (s *DayStore) load(date string) (domain.DayFile, bool) {
	df, err := readDayFile(s.Path(date))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.DayFile{}, false
		}
		s.logger.Warn("unreadable day file, treating as empty", "date", date, "error", err)
		return domain.DayFile{}, true
	}
	return df, true
}

// Merge appends the new records whose identity is not yet present, re-sorts,
// stamps last_update, and writes the file. It returns the resulting day file
// and the records that were actually added; records with a colliding id are
// discarded silently. A day file only comes into existence with its first
// record: merging nothing into an absent date writes nothing.
func (s *DayStore) Merge(date string, newRecords []domain.OutageRecord) (domain.DayFile, []domain.OutageRecord, error) {
	df, exists := s.load(date)

	existing := make(map[string]struct{}, len(df.Outages))
	for _, rec := range df.Outages {
		existing[rec.ID] = struct{}{}
	}

	var added []domain.OutageRecord
	for _, rec := range newRecords {
		if _, dup := existing[rec.ID]; dup {
			continue
		}
		existing[rec.ID] = struct{}{}
		df.Outages = append(df.Outages, rec)
		added = append(added, rec)
	}

	if !exists && len(added) == 0 {
		return df, nil, nil
	}

	SortRecords(df.Outages)
	if df.Outages == nil {
		df.Outages = []domain.OutageRecord{}
	}
	df.LastUpdate = s.clock.Now().UTC().Format(time.RFC3339)

	if err := writeJSONAtomic(s.Path(date), df); err != nil {
		return domain.DayFile{}, nil, err
	}
	return df, added, nil
}

// SortRecords orders records by (start_time, end_time, geocoded_address)
// ascending, comparing the persisted strings directly. The "Brak danych"
// sentinel takes part in the comparison as a plain string.
func SortRecords(records []domain.OutageRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.EndTime != b.EndTime {
			return a.EndTime < b.EndTime
		}
		return a.GeocodedAddress < b.GeocodedAddress
	})
}

func readDayFile(path string) (domain.DayFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.DayFile{}, err
	}
	df, _, err := decodeDayFile(data)
	return df, err
}
