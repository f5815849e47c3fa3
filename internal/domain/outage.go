package domain

import "time"

// OutageKind distinguishes the operator's planned maintenance listings from
// unplanned failure reports.
type OutageKind string

const (
	KindPlanned   OutageKind = "planned"
	KindUnplanned OutageKind = "unplanned"
)

// NoDataSentinel is persisted in place of a missing start or end timestamp.
// The literal string is kept for compatibility with files written by earlier
// revisions of the pipeline.
const NoDataSentinel = "Brak danych"

// LegacyRegion is the region assigned to records written before the region
// field existed. Early revisions only covered Poznań.
const LegacyRegion = "Poznań"

// RawOutage is one announcement as returned by the outage feed. Immutable;
// the description is carried verbatim into the persisted record.
type RawOutage struct {
	Description string     `json:"description"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Kind        OutageKind `json:"kind,omitempty"`
}

// GeocodeResult is a resolved location as returned by the geocoding provider.
type GeocodeResult struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// OutageRecord is the canonical persisted unit: one geocoded street-level
// observation of an outage. ID is a content hash, not a sequence number.
type OutageRecord struct {
	ID                  string  `json:"id"`
	Type                string  `json:"type"`
	Region              string  `json:"region"`
	GeocodedAddress     string  `json:"geocoded_address"`
	Lat                 float64 `json:"lat"`
	Lon                 float64 `json:"lon"`
	StartTime           string  `json:"start_time"`
	EndTime             string  `json:"end_time"`
	OriginalDescription string  `json:"original_description"`
}

// DayFile is the persisted record set for one UTC calendar date.
type DayFile struct {
	LastUpdate string         `json:"last_update"`
	Outages    []OutageRecord `json:"outages"`
}
