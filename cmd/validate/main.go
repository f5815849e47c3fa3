// Command validate performs integrity checks over an outage data directory:
// day partition files, the day index, and the geocoding cache. It verifies
// that every file parses, record identities are well formed and unique, day
// files are sorted, and the index matches what is on disk.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/eneamap/outage-data-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "data", "data directory to validate")
	flag.Parse()

	if code := run(*dataDir); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir string) int {
	fmt.Println("=== Outage Data Integrity Validation ===")
	fmt.Println()

	days, err := loadDayFiles(filepath.Join(dataDir, "days"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load day files: %v\n", err)
		return 1
	}

	indexDates, indexErr := loadIndex(filepath.Join(dataDir, "index.json"))

	phases := []*phase{
		validateDayFiles(days),
		validateIdentity(days),
		validateSortOrder(days),
		validateIndex(days, indexDates, indexErr),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	total := 0
	for _, d := range days {
		total += len(d.file.Outages)
	}
	fmt.Println()
	fmt.Printf("Records: %d across %d day files, %d index entries\n", total, len(days), len(indexDates))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

type dayData struct {
	date string
	path string
	file domain.DayFile
}

func loadDayFiles(dir string) ([]dayData, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	days := make([]dayData, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var file domain.DayFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		date := strings.TrimSuffix(filepath.Base(path), ".json")
		days = append(days, dayData{date: date, path: path, file: file})
	}
	return days, nil
}

func loadIndex(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var dates []string
	if err := json.Unmarshal(data, &dates); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return dates, nil
}

// ── Phase 1: Day Files ──
// Every file name is a date, every record has the fields a reader needs.

func validateDayFiles(days []dayData) *phase {
	p := &phase{name: "Phase 1: Day Files (shape)"}

	validTypes := map[string]bool{"planned": true, "unplanned": true}

	for _, d := range days {
		if _, err := time.Parse("2006-01-02", d.date); err != nil {
			p.errorf("%s: file name is not a date", d.path)
		}
		if d.file.LastUpdate == "" {
			p.errorf("%s: last_update is empty", d.date)
		}
		for i, rec := range d.file.Outages {
			if rec.Region == "" {
				p.errorf("%s record %d: region is empty (unmigrated file?)", d.date, i)
			}
			if !validTypes[rec.Type] {
				p.errorf("%s record %d: type %q not in {planned, unplanned}", d.date, i, rec.Type)
			}
			if rec.GeocodedAddress == "" {
				p.errorf("%s record %d: geocoded_address is empty", d.date, i)
			}
			if rec.StartTime == "" || rec.EndTime == "" {
				p.errorf("%s record %d: missing start or end time (use %q when unknown)", d.date, i, domain.NoDataSentinel)
			}
		}
	}
	return p
}

// ── Phase 2: Identity ──
// IDs carry the outage- prefix, a 16 hex digest, and are unique per day.

var idRe = regexp.MustCompile(`^outage-[0-9a-f]{16}$`)

func validateIdentity(days []dayData) *phase {
	p := &phase{name: "Phase 2: Identity (ids)"}

	for _, d := range days {
		seen := map[string]int{}
		for i, rec := range d.file.Outages {
			if !idRe.MatchString(rec.ID) {
				p.errorf("%s record %d: malformed id %q", d.date, i, rec.ID)
				continue
			}
			if prev, ok := seen[rec.ID]; ok {
				p.errorf("%s: duplicate id %s at records %d and %d", d.date, rec.ID, prev, i)
			}
			seen[rec.ID] = i
		}
	}
	return p
}

// ── Phase 3: Sort Order ──
// Records within a day are ordered by (start_time, end_time, address).

func validateSortOrder(days []dayData) *phase {
	p := &phase{name: "Phase 3: Sort Order (within day)"}

	for _, d := range days {
		for i := 1; i < len(d.file.Outages); i++ {
			a, b := d.file.Outages[i-1], d.file.Outages[i]
			if !recordLessOrEqual(a, b) {
				p.errorf("%s: records %d and %d out of order (%q > %q)", d.date, i-1, i, sortKey(a), sortKey(b))
			}
		}
	}
	return p
}

func sortKey(rec domain.OutageRecord) string {
	return rec.StartTime + "|" + rec.EndTime + "|" + rec.GeocodedAddress
}

func recordLessOrEqual(a, b domain.OutageRecord) bool {
	if a.StartTime != b.StartTime {
		return a.StartTime < b.StartTime
	}
	if a.EndTime != b.EndTime {
		return a.EndTime < b.EndTime
	}
	return a.GeocodedAddress <= b.GeocodedAddress
}

// ── Phase 4: Index ──
// The index lists exactly the day files on disk, newest first.

func validateIndex(days []dayData, indexDates []string, indexErr error) *phase {
	p := &phase{name: "Phase 4: Index (matches disk)"}

	if indexErr != nil {
		if len(days) == 0 {
			return p
		}
		p.errorf("index: %v", indexErr)
		return p
	}

	for i := 1; i < len(indexDates); i++ {
		if indexDates[i-1] <= indexDates[i] {
			p.errorf("index entries %d and %d not strictly descending (%q, %q)", i-1, i, indexDates[i-1], indexDates[i])
		}
	}

	onDisk := map[string]bool{}
	for _, d := range days {
		onDisk[d.date] = true
	}
	inIndex := map[string]bool{}
	for _, date := range indexDates {
		inIndex[date] = true
		if !onDisk[date] {
			p.errorf("index lists %s but no day file exists", date)
		}
	}
	for _, d := range days {
		if len(d.file.Outages) > 0 && !inIndex[d.date] {
			p.errorf("day file %s has records but is missing from the index", d.date)
		}
	}
	return p
}
