package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// BuildRecord combines one raw announcement with its resolved location into
// the canonical persisted record. Missing timestamps map to NoDataSentinel;
// the original description is copied verbatim for identity and audit.
func BuildRecord(raw RawOutage, region string, kind OutageKind, resolved GeocodeResult) OutageRecord {
	start := formatTimestamp(raw.StartTime)
	end := formatTimestamp(raw.EndTime)

	return OutageRecord{
		ID:                  generateID(start, end, raw.Description, resolved.Address),
		Type:                string(kind),
		Region:              region,
		GeocodedAddress:     resolved.Address,
		Lat:                 resolved.Lat,
		Lon:                 resolved.Lon,
		StartTime:           start,
		EndTime:             end,
		OriginalDescription: raw.Description,
	}
}

func formatTimestamp(t *time.Time) string {
	if t == nil {
		return NoDataSentinel
	}
	return t.Format(time.RFC3339)
}

// generateID produces a deterministic ID from the record's semantic fields.
// Any change to the times, the source wording, or the resolved address is a
// new identity, which makes merging into an existing day file idempotent.
func generateID(startTime, endTime, description, address string) string {
	input := fmt.Sprintf("%s|%s|%s|%s", startTime, endTime, description, address)
	hash := sha256.Sum256([]byte(input))
	return "outage-" + hex.EncodeToString(hash[:8])
}
