package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/eneamap/outage-data-etl/internal/domain"
	"github.com/eneamap/outage-data-etl/internal/observability"
)

// Migrator upgrades persisted day files written by earlier schema revisions:
// a bare JSON array of records gains the {last_update, outages} envelope,
// and records without a region gain the legacy default. It runs once at
// startup, before the pipeline touches any day file.
type Migrator struct {
	dir          string
	legacyRegion string
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewMigrator creates a Migrator over the day-file directory.
func NewMigrator(dir, legacyRegion string, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Migrator {
	return &Migrator{
		dir:          dir,
		legacyRegion: legacyRegion,
		clock:        clock,
		logger:       logger,
		metrics:      metrics,
	}
}

// Run scans all day files and rewrites the ones that changed. It returns the
// number of files rewritten. Files that fail to parse are skipped with a
// warning; they never abort the pass.
func (m *Migrator) Run() (int, error) {
	paths, err := filepath.Glob(filepath.Join(m.dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("scan day files: %w", err)
	}
	if len(paths) == 0 {
		return 0, nil
	}
	sort.Strings(paths)

	// Fast path: sample one file. If its first record already carries a
	// region, every file was written by the current schema.
	if df, _, err := readRaw(paths[0]); err == nil && len(df.Outages) > 0 && df.Outages[0].Region != "" {
		m.logger.Debug("day files already migrated", "sampled", paths[0])
		return 0, nil
	}

	migrated := 0
	for _, path := range paths {
		df, changed, err := readRaw(path)
		if err != nil {
			m.logger.Warn("skipping unparseable day file", "path", path, "error", err)
			continue
		}

		for i := range df.Outages {
			if df.Outages[i].Region == "" {
				df.Outages[i].Region = m.legacyRegion
				changed = true
			}
		}

		if !changed {
			continue
		}
		if df.LastUpdate == "" {
			df.LastUpdate = m.clock.Now().UTC().Format(time.RFC3339)
		}
		if err := writeJSONAtomic(path, df); err != nil {
			return migrated, fmt.Errorf("rewrite %s: %w", path, err)
		}
		m.metrics.FilesMigrated.Inc()
		m.logger.Info("migrated day file", "path", path, "records", len(df.Outages))
		migrated++
	}

	return migrated, nil
}

func readRaw(path string) (domain.DayFile, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.DayFile{}, false, err
	}
	return decodeDayFile(data)
}

// decodeDayFile parses either the current {last_update, outages} envelope or
// the original bare-array shape. The second return value reports whether the
// legacy shape was found (and therefore the file needs rewriting).
func decodeDayFile(data []byte) (domain.DayFile, bool, error) {
	var df domain.DayFile
	if err := json.Unmarshal(data, &df); err == nil {
		return df, false, nil
	}

	var records []domain.OutageRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return domain.DayFile{Outages: records}, true, nil
	}

	return domain.DayFile{}, false, errors.New("neither day-file envelope nor record array")
}
