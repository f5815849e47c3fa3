package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildRecord(t *testing.T) {
	start := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)
	resolved := GeocodeResult{Address: "Kwiatowa, Poznań, Polska", Lat: 52.41, Lon: 16.93}

	t.Run("full record", func(t *testing.T) {
		raw := RawOutage{
			Description: "Awaria ul. Kwiatowa",
			StartTime:   &start,
			EndTime:     &end,
		}

		rec := BuildRecord(raw, "Poznań", KindPlanned, resolved)

		assert.Equal(t, "planned", rec.Type)
		assert.Equal(t, "Poznań", rec.Region)
		assert.Equal(t, "Kwiatowa, Poznań, Polska", rec.GeocodedAddress)
		assert.Equal(t, 52.41, rec.Lat)
		assert.Equal(t, 16.93, rec.Lon)
		assert.Equal(t, "2024-05-10T08:00:00Z", rec.StartTime)
		assert.Equal(t, "2024-05-10T14:00:00Z", rec.EndTime)
		assert.Equal(t, "Awaria ul. Kwiatowa", rec.OriginalDescription)
		assert.True(t, strings.HasPrefix(rec.ID, "outage-"))
	})

	t.Run("missing timestamps map to sentinel", func(t *testing.T) {
		raw := RawOutage{Description: "Awaria ul. Kwiatowa"}

		rec := BuildRecord(raw, "Poznań", KindUnplanned, resolved)

		assert.Equal(t, NoDataSentinel, rec.StartTime)
		assert.Equal(t, NoDataSentinel, rec.EndTime)
		assert.Equal(t, "unplanned", rec.Type)
	})

	t.Run("description copied verbatim", func(t *testing.T) {
		raw := RawOutage{Description: "  Awaria UL. Kwiatowa (w godz. 8-14)  "}

		rec := BuildRecord(raw, "Poznań", KindUnplanned, resolved)

		assert.Equal(t, raw.Description, rec.OriginalDescription)
	})
}

func TestBuildRecord_Identity(t *testing.T) {
	start := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	raw := RawOutage{Description: "Awaria ul. Kwiatowa", StartTime: &start}
	resolved := GeocodeResult{Address: "Kwiatowa, Poznań", Lat: 52.41, Lon: 16.93}

	t.Run("deterministic across runs", func(t *testing.T) {
		rec1 := BuildRecord(raw, "Poznań", KindPlanned, resolved)
		rec2 := BuildRecord(raw, "Poznań", KindPlanned, resolved)
		assert.Equal(t, rec1.ID, rec2.ID)
	})

	t.Run("description change produces new identity", func(t *testing.T) {
		changed := raw
		changed.Description = "Awaria ul. Kwiatowa 5"
		rec1 := BuildRecord(raw, "Poznań", KindPlanned, resolved)
		rec2 := BuildRecord(changed, "Poznań", KindPlanned, resolved)
		assert.NotEqual(t, rec1.ID, rec2.ID)
	})

	t.Run("start time change produces new identity", func(t *testing.T) {
		later := start.Add(time.Hour)
		changed := raw
		changed.StartTime = &later
		rec1 := BuildRecord(raw, "Poznań", KindPlanned, resolved)
		rec2 := BuildRecord(changed, "Poznań", KindPlanned, resolved)
		assert.NotEqual(t, rec1.ID, rec2.ID)
	})

	t.Run("address change produces new identity", func(t *testing.T) {
		other := resolved
		other.Address = "Lipowa, Poznań"
		rec1 := BuildRecord(raw, "Poznań", KindPlanned, resolved)
		rec2 := BuildRecord(raw, "Poznań", KindPlanned, other)
		assert.NotEqual(t, rec1.ID, rec2.ID)
	})

	t.Run("kind and region do not affect identity", func(t *testing.T) {
		rec1 := BuildRecord(raw, "Poznań", KindPlanned, resolved)
		rec2 := BuildRecord(raw, "Gniezno", KindUnplanned, resolved)
		assert.Equal(t, rec1.ID, rec2.ID)
	})
}

func TestGenerateID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		id1 := generateID("2024-05-10T08:00:00Z", NoDataSentinel, "opis", "adres")
		id2 := generateID("2024-05-10T08:00:00Z", NoDataSentinel, "opis", "adres")
		assert.Equal(t, id1, id2)
	})

	t.Run("prefix and length", func(t *testing.T) {
		id := generateID("a", "b", "c", "d")
		assert.True(t, strings.HasPrefix(id, "outage-"))
		assert.Len(t, id, len("outage-")+16)
	})

	t.Run("field order matters", func(t *testing.T) {
		id1 := generateID("a", "b", "c", "d")
		id2 := generateID("b", "a", "c", "d")
		assert.NotEqual(t, id1, id2)
	})
}
