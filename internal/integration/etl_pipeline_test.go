package integration_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eneaadapter "github.com/eneamap/outage-data-etl/internal/adapter/enea"
	"github.com/eneamap/outage-data-etl/internal/adapter/nominatim"
	"github.com/eneamap/outage-data-etl/internal/domain"
	"github.com/eneamap/outage-data-etl/internal/geocode"
	"github.com/eneamap/outage-data-etl/internal/observability"
	"github.com/eneamap/outage-data-etl/internal/pipeline"
	"github.com/eneamap/outage-data-etl/internal/store"
)

// newFeedServer serves the outage portal API with one unplanned announcement
// mentioning two streets.
func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/outages", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("type") != "unplanned" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[
			{
				"description": "Awaria ul. Lipowa i ul. Kwiatowa (godz. 10-14)",
				"start_time": "2024-05-10T10:00:00Z",
				"end_time": "2024-05-10T14:00:00Z"
			}
		]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newGeocoderServer serves canned geocoding answers: Lipowa resolves,
// Kwiatowa does not.
func newGeocoderServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	calls := new(int)
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("q") {
		case "lipowa, Poznań":
			_, _ = w.Write([]byte(`[{"lat": "52.4064", "lon": "16.9252", "display_name": "Lipowa, Poznań, Polska"}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, calls
}

func newRunner(t *testing.T, dataDir string, feedURL, geocoderURL string) (*pipeline.Pipeline, *geocode.Cache) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 10, 12, 30, 0, 0, time.UTC))

	cache := geocode.OpenCache(filepath.Join(dataDir, "geocoding_cache.json"), logger)
	geocoder := nominatim.NewRateLimiter(
		nominatim.NewClient(geocoderURL, "outage-data-etl test", "pl", 5*time.Second, metrics, logger),
		time.Millisecond,
		time.Millisecond,
		clockwork.NewRealClock(),
	)
	resolver := geocode.NewResolver(cache, geocoder, logger, metrics)

	feed := eneaadapter.NewClient(feedURL, 5*time.Second, []string{"Poznań"}, logger)
	days := store.NewDayStore(filepath.Join(dataDir, "days"), clock, logger)
	index := store.NewIndex(filepath.Join(dataDir, "index.json"), logger)

	p := pipeline.New(feed, domain.NewAddressExtractor(false), resolver, days, index, nil, clock, logger, metrics)
	return p, cache
}

func TestFullRunPersistsDayFileIndexAndCache(t *testing.T) {
	feedSrv := newFeedServer(t)
	geoSrv, calls := newGeocoderServer(t)
	dataDir := t.TempDir()

	p, cache := newRunner(t, dataDir, feedSrv.URL, geoSrv.URL)
	require.NoError(t, p.Run(context.Background()))
	require.NoError(t, cache.Save())

	// Day file: only the resolvable street survives.
	data, err := os.ReadFile(filepath.Join(dataDir, "days", "2024-05-10.json"))
	require.NoError(t, err)
	var day domain.DayFile
	require.NoError(t, json.Unmarshal(data, &day))
	assert.Equal(t, "2024-05-10T12:30:00Z", day.LastUpdate)
	require.Len(t, day.Outages, 1)

	rec := day.Outages[0]
	assert.Equal(t, "Lipowa, Poznań, Polska", rec.GeocodedAddress)
	assert.Equal(t, "unplanned", rec.Type)
	assert.Equal(t, "Poznań", rec.Region)
	assert.Equal(t, "2024-05-10T10:00:00Z", rec.StartTime)
	assert.Equal(t, "2024-05-10T14:00:00Z", rec.EndTime)
	assert.Regexp(t, `^outage-[0-9a-f]{16}$`, rec.ID)

	// Index lists the day.
	idxData, err := os.ReadFile(filepath.Join(dataDir, "index.json"))
	require.NoError(t, err)
	var dates []string
	require.NoError(t, json.Unmarshal(idxData, &dates))
	assert.Equal(t, []string{"2024-05-10"}, dates)

	// Cache holds both outcomes: a hit for Lipowa, a negative for Kwiatowa.
	assert.Equal(t, 2, *calls)
	assert.Equal(t, 2, cache.Len())
}

func TestSecondRunIsIdempotentAndUsesCache(t *testing.T) {
	feedSrv := newFeedServer(t)
	geoSrv, calls := newGeocoderServer(t)
	dataDir := t.TempDir()

	p1, cache1 := newRunner(t, dataDir, feedSrv.URL, geoSrv.URL)
	require.NoError(t, p1.Run(context.Background()))
	require.NoError(t, cache1.Save())

	firstDay, err := os.ReadFile(filepath.Join(dataDir, "days", "2024-05-10.json"))
	require.NoError(t, err)

	// Fresh wiring, same data directory: the cache file answers everything.
	p2, cache2 := newRunner(t, dataDir, feedSrv.URL, geoSrv.URL)
	require.NoError(t, p2.Run(context.Background()))
	require.NoError(t, cache2.Save())

	assert.Equal(t, 2, *calls, "second run must not hit the geocoder")

	secondDay, err := os.ReadFile(filepath.Join(dataDir, "days", "2024-05-10.json"))
	require.NoError(t, err)
	assert.Equal(t, string(firstDay), string(secondDay))
}
