// Package domain models power-outage announcements published by the ENEA
// distribution operator and the canonical records derived from them.
//
// # Data Source
//
// Announcements are free-form Polish sentences published per region on the
// operator's outage portal, fetched by the feed adapter as planned and
// unplanned listings. A single announcement typically names one or more
// streets, optional house-number ranges, and a time window, for example:
//
//	"Poznań ul. Kwiatowa od 12 do 30, ul. Lipowa (w godz. 8-14)"
//
// # Announcement Conventions
//
// Street markers:
//
//	"ul."  ulica   (street)
//	"os."  osiedle (estate)
//	"al."  aleja   (avenue)
//
// Multiple streets in one announcement are joined by commas or by the
// conjunctions "i" and "oraz". Parenthetical asides and trailing "w godz."
// clauses carry the time window and never name a street.
//
// House numbers follow the street name either as a bare run ("Kwiatowa 12")
// or as a range ("Kwiatowa od 12 do 30"). They are stripped during
// extraction; geocoding targets the street, not the building.
//
// Missing timestamps:
//
//	"Brak danych" ("no data") is the sentinel persisted for an absent
//	start or end time. It takes part in the day file sort order as a
//	plain string.
//
// # ID Generation
//
// Record IDs are deterministic SHA-256 hashes over start time, end time,
// original description, and geocoded address. Re-running the pipeline over
// the same source text yields the same IDs, so merging into an existing day
// file is idempotent. A change in the source wording is a new fact with a
// new identity, not an update to an old one. See [BuildRecord].
package domain
