package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// parentheticalRe removes asides like "(w godz. 8-14)" embedded anywhere
	// in an announcement. Non-greedy so two asides don't swallow the text
	// between them.
	parentheticalRe = regexp.MustCompile(`\(.*?\)`)

	// hoursClauseRe removes a trailing time-range clause: "w godz. 8:00-14:00".
	hoursClauseRe = regexp.MustCompile(`w godz\..*`)

	// connectiveRe splits an announcement into street segments on commas and
	// on the conjunctions "i" / "oraz".
	connectiveRe = regexp.MustCompile(`,|\s+i\s+|\s+oraz\s+`)

	// streetMarkerRe matches "ul. Kwiatowa", "os. Piastowskie", "al. Polska".
	// Go's \w is ASCII-only, so the name class spells out Unicode letters and
	// digits to keep Polish diacritics.
	streetMarkerRe = regexp.MustCompile(`(?:ul\.|os\.|al\.)\s*([\p{L}\p{N}_\s\-.]+[\p{L}\p{N}_])`)

	// House-number qualifiers trailing a street name: "od 12...", "do 30...",
	// or a bare number run.
	fromNumberRe  = regexp.MustCompile(`\s+od\s+\d+.*`)
	toNumberRe    = regexp.MustCompile(`\s+do\s+\d+.*`)
	houseNumberRe = regexp.MustCompile(`\s+\d+.*`)
)

// AddressExtractor turns a raw announcement into normalized street-name
// candidates. Extraction is heuristic pattern matching over lowercased text,
// not a grammar; candidates still need geocoding to become locations.
type AddressExtractor struct {
	bareRegionFallback bool
}

// NewAddressExtractor creates an extractor. With bareRegionFallback enabled,
// segments that carry no street marker but mention the region name are kept
// as candidates after stripping the region name and the word "ulica". Older
// feed revisions needed the fallback; the current one does not, so it
// defaults to off in config.
func NewAddressExtractor(bareRegionFallback bool) *AddressExtractor {
	return &AddressExtractor{bareRegionFallback: bareRegionFallback}
}

// Extract returns the deduplicated set of street-name candidates found in
// description. An announcement with no recognizable street yields an empty
// set, not an error. Candidates are lowercase; order follows first
// occurrence.
func (e *AddressExtractor) Extract(description, region string) []string {
	desc := strings.ToLower(description)
	desc = parentheticalRe.ReplaceAllString(desc, "")
	desc = hoursClauseRe.ReplaceAllString(desc, "")

	regionLower := strings.ToLower(region)

	seen := make(map[string]struct{})
	var candidates []string
	add := func(name string) {
		if utf8.RuneCountInString(name) <= 2 {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		candidates = append(candidates, name)
	}

	for _, segment := range connectiveRe.Split(desc, -1) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		if m := streetMarkerRe.FindStringSubmatch(segment); m != nil {
			name := strings.TrimSpace(m[1])
			name = strings.TrimSpace(fromNumberRe.ReplaceAllString(name, ""))
			name = strings.TrimSpace(toNumberRe.ReplaceAllString(name, ""))
			name = strings.TrimSpace(houseNumberRe.ReplaceAllString(name, ""))
			add(name)
			continue
		}

		if e.bareRegionFallback && regionLower != "" && strings.Contains(segment, regionLower) {
			name := strings.ReplaceAll(segment, regionLower, "")
			name = strings.ReplaceAll(name, "ulica", "")
			add(strings.TrimSpace(name))
		}
	}

	return candidates
}
