// Command genmock generates a sample outage data directory using the actual
// domain and store packages, so fixtures match real pipeline output byte for
// byte. Useful for frontend development and for exercising cmd/validate.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/eneamap/outage-data-etl/internal/domain"
	"github.com/eneamap/outage-data-etl/internal/store"
)

var baseDate = time.Date(2024, time.May, 10, 12, 30, 0, 0, time.UTC)

type sample struct {
	description string
	start       *time.Time
	end         *time.Time
	kind        domain.OutageKind
	resolved    domain.GeocodeResult
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock", "output directory for the sample data set")
	flag.Parse()

	clock := clockwork.NewFakeClockAt(baseDate)
	logger := slog.Default()

	days := store.NewDayStore(*out+"/days", clock, logger)
	index := store.NewIndex(*out+"/index.json", logger)

	for date, samples := range sampleDays() {
		records := make([]domain.OutageRecord, 0, len(samples))
		for _, s := range samples {
			raw := domain.RawOutage{Description: s.description, StartTime: s.start, EndTime: s.end}
			records = append(records, domain.BuildRecord(raw, domain.LegacyRegion, s.kind, s.resolved))
		}

		day, _, err := days.Merge(date, records)
		if err != nil {
			return fmt.Errorf("writing day %s: %w", date, err)
		}
		if err := index.Register(date); err != nil {
			return fmt.Errorf("registering day %s: %w", date, err)
		}
		log.Printf("%s: %d records", date, len(day.Outages))
	}

	log.Printf("wrote sample data set: %s", *out)
	return nil
}

func at(day, hour int) *time.Time {
	t := time.Date(2024, time.May, day, hour, 0, 0, 0, time.UTC)
	return &t
}

func sampleDays() map[string][]sample {
	return map[string][]sample{
		"2024-05-09": {
			{
				description: "Planowane wyłączenie ul. Głogowska od 120 do 140",
				start:       at(9, 8),
				end:         at(9, 14),
				kind:        domain.KindPlanned,
				resolved:    domain.GeocodeResult{Address: "Głogowska, Poznań, Polska", Lat: 52.3866, Lon: 16.8859},
			},
			{
				description: "Awaria os. Jana III Sobieskiego",
				start:       at(9, 11),
				kind:        domain.KindUnplanned,
				resolved:    domain.GeocodeResult{Address: "Osiedle Jana III Sobieskiego, Poznań, Polska", Lat: 52.4612, Lon: 16.9175},
			},
		},
		"2024-05-10": {
			{
				description: "Awaria ul. Lipowa i ul. Kwiatowa w godz. 10-14",
				start:       at(10, 10),
				end:         at(10, 14),
				kind:        domain.KindUnplanned,
				resolved:    domain.GeocodeResult{Address: "Lipowa, Poznań, Polska", Lat: 52.4064, Lon: 16.9252},
			},
			{
				description: "Awaria ul. Lipowa i ul. Kwiatowa w godz. 10-14",
				start:       at(10, 10),
				end:         at(10, 14),
				kind:        domain.KindUnplanned,
				resolved:    domain.GeocodeResult{Address: "Kwiatowa, Poznań, Polska", Lat: 52.4021, Lon: 16.9188},
			},
			{
				description: "Prace planowe al. Niepodległości 12",
				start:       at(10, 7),
				kind:        domain.KindPlanned,
				resolved:    domain.GeocodeResult{Address: "Aleja Niepodległości, Poznań, Polska", Lat: 52.4098, Lon: 16.9201},
			},
		},
	}
}
