package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eneamap/outage-data-etl/internal/domain"
	"github.com/eneamap/outage-data-etl/internal/observability"
)

type feedKey struct {
	region string
	kind   domain.OutageKind
}

type mockFeed struct {
	regions    []string
	regionsErr error
	outages    map[feedKey][]domain.RawOutage
	errs       map[feedKey]error
}

func (m *mockFeed) ListRegions(_ context.Context) ([]string, error) {
	return m.regions, m.regionsErr
}

func (m *mockFeed) Fetch(_ context.Context, region string, kind domain.OutageKind) ([]domain.RawOutage, error) {
	k := feedKey{region: region, kind: kind}
	if err := m.errs[k]; err != nil {
		return nil, err
	}
	return m.outages[k], nil
}

type mockResolver struct {
	results map[string]*domain.GeocodeResult
	calls   []string
}

func (m *mockResolver) Resolve(_ context.Context, candidate, region string) *domain.GeocodeResult {
	m.calls = append(m.calls, candidate)
	return m.results[candidate]
}

type mockStore struct {
	mergedDate    string
	mergedRecords []domain.OutageRecord
	added         []domain.OutageRecord
	addedSet      bool
	err           error
}

func (m *mockStore) Merge(date string, records []domain.OutageRecord) (domain.DayFile, []domain.OutageRecord, error) {
	if m.err != nil {
		return domain.DayFile{}, nil, m.err
	}
	m.mergedDate = date
	m.mergedRecords = records
	added := records
	if m.addedSet {
		added = m.added
	}
	return domain.DayFile{Outages: append([]domain.OutageRecord(nil), records...)}, added, nil
}

type mockIndex struct {
	registered []string
	err        error
}

func (m *mockIndex) Register(date string) error {
	if m.err != nil {
		return m.err
	}
	m.registered = append(m.registered, date)
	return nil
}

type mockPublisher struct {
	published []domain.OutageRecord
	err       error
}

func (m *mockPublisher) PublishRecords(_ context.Context, records []domain.OutageRecord) error {
	m.published = append(m.published, records...)
	return m.err
}

func t0() time.Time {
	return time.Date(2024, 5, 10, 12, 30, 0, 0, time.UTC)
}

func newTestPipeline(feed *mockFeed, resolver *mockResolver, store *mockStore, index *mockIndex, publisher RecordPublisher) *Pipeline {
	return New(
		feed,
		domain.NewAddressExtractor(false),
		resolver,
		store,
		index,
		publisher,
		clockwork.NewFakeClockAt(t0()),
		slog.Default(),
		observability.NewMetricsForTesting(),
	)
}

func startTime(h int) *time.Time {
	t := time.Date(2024, 5, 10, h, 0, 0, 0, time.UTC)
	return &t
}

func TestRunBuildsAndMergesRecords(t *testing.T) {
	feed := &mockFeed{
		regions: []string{"Poznań"},
		outages: map[feedKey][]domain.RawOutage{
			{region: "Poznań", kind: domain.KindUnplanned}: {
				{Description: "Awaria ul. Lipowa i ul. Kwiatowa (godz. 10-14)", StartTime: startTime(8)},
			},
		},
	}
	resolver := &mockResolver{results: map[string]*domain.GeocodeResult{
		"lipowa":   {Address: "Lipowa, Poznań", Lat: 52.4, Lon: 16.9},
		"kwiatowa": {Address: "Kwiatowa, Poznań", Lat: 52.41, Lon: 16.93},
	}}
	store := &mockStore{}
	index := &mockIndex{}

	p := newTestPipeline(feed, resolver, store, index, nil)
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, "2024-05-10", store.mergedDate)
	require.Len(t, store.mergedRecords, 2)
	assert.Equal(t, []string{"lipowa", "kwiatowa"}, resolver.calls)

	rec := store.mergedRecords[0]
	assert.Equal(t, "unplanned", rec.Type)
	assert.Equal(t, "Poznań", rec.Region)
	assert.Equal(t, "Lipowa, Poznań", rec.GeocodedAddress)
	assert.Equal(t, "2024-05-10T08:00:00Z", rec.StartTime)
	assert.Equal(t, domain.NoDataSentinel, rec.EndTime)
	assert.Equal(t, "Awaria ul. Lipowa i ul. Kwiatowa (godz. 10-14)", rec.OriginalDescription)

	assert.Equal(t, []string{"2024-05-10"}, index.registered)
}

func TestRunSkipsFailingFeedSlice(t *testing.T) {
	feed := &mockFeed{
		regions: []string{"Poznań"},
		outages: map[feedKey][]domain.RawOutage{
			{region: "Poznań", kind: domain.KindUnplanned}: {
				{Description: "Awaria ul. Lipowa", StartTime: startTime(8)},
			},
		},
		errs: map[feedKey]error{
			{region: "Poznań", kind: domain.KindPlanned}: fmt.Errorf("portal returned 502"),
		},
	}
	resolver := &mockResolver{results: map[string]*domain.GeocodeResult{
		"lipowa": {Address: "Lipowa, Poznań", Lat: 52.4, Lon: 16.9},
	}}
	store := &mockStore{}
	index := &mockIndex{}

	p := newTestPipeline(feed, resolver, store, index, nil)
	require.NoError(t, p.Run(context.Background()))

	require.Len(t, store.mergedRecords, 1)
	assert.Equal(t, "unplanned", store.mergedRecords[0].Type)
}

func TestRunUnresolvedCandidatesDropped(t *testing.T) {
	feed := &mockFeed{
		regions: []string{"Poznań"},
		outages: map[feedKey][]domain.RawOutage{
			{region: "Poznań", kind: domain.KindPlanned}: {
				{Description: "ul. Zmyślona i ul. Lipowa", StartTime: startTime(9)},
			},
		},
	}
	resolver := &mockResolver{results: map[string]*domain.GeocodeResult{
		"lipowa": {Address: "Lipowa, Poznań", Lat: 52.4, Lon: 16.9},
	}}
	store := &mockStore{}
	index := &mockIndex{}

	p := newTestPipeline(feed, resolver, store, index, nil)
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, []string{"zmyślona", "lipowa"}, resolver.calls)
	require.Len(t, store.mergedRecords, 1)
	assert.Equal(t, "Lipowa, Poznań", store.mergedRecords[0].GeocodedAddress)
}

func TestRunAbortsWhenListRegionsFails(t *testing.T) {
	feed := &mockFeed{regionsErr: errors.New("portal unreachable")}
	p := newTestPipeline(feed, &mockResolver{}, &mockStore{}, &mockIndex{}, nil)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing regions")
}

func TestRunAbortsWhenMergeFails(t *testing.T) {
	feed := &mockFeed{regions: []string{"Poznań"}}
	store := &mockStore{err: errors.New("disk full")}

	p := newTestPipeline(feed, &mockResolver{}, store, &mockIndex{}, nil)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merging day")
}

func TestRunSkipsIndexWhenDayEmpty(t *testing.T) {
	feed := &mockFeed{regions: []string{"Poznań"}}
	index := &mockIndex{}

	p := newTestPipeline(feed, &mockResolver{}, &mockStore{}, index, nil)
	require.NoError(t, p.Run(context.Background()))

	assert.Empty(t, index.registered)
}

func TestRunPublishesOnlyAddedRecords(t *testing.T) {
	feed := &mockFeed{
		regions: []string{"Poznań"},
		outages: map[feedKey][]domain.RawOutage{
			{region: "Poznań", kind: domain.KindUnplanned}: {
				{Description: "Awaria ul. Lipowa i ul. Kwiatowa", StartTime: startTime(8)},
			},
		},
	}
	resolver := &mockResolver{results: map[string]*domain.GeocodeResult{
		"lipowa":   {Address: "Lipowa, Poznań", Lat: 52.4, Lon: 16.9},
		"kwiatowa": {Address: "Kwiatowa, Poznań", Lat: 52.41, Lon: 16.93},
	}}
	added := domain.OutageRecord{ID: "outage-aaaaaaaaaaaaaaaa", GeocodedAddress: "Lipowa, Poznań"}
	store := &mockStore{added: []domain.OutageRecord{added}, addedSet: true}
	publisher := &mockPublisher{}

	p := newTestPipeline(feed, resolver, store, &mockIndex{}, publisher)
	require.NoError(t, p.Run(context.Background()))

	require.Len(t, publisher.published, 1)
	assert.Equal(t, "outage-aaaaaaaaaaaaaaaa", publisher.published[0].ID)
}

func TestRunSurvivesPublisherError(t *testing.T) {
	feed := &mockFeed{
		regions: []string{"Poznań"},
		outages: map[feedKey][]domain.RawOutage{
			{region: "Poznań", kind: domain.KindUnplanned}: {
				{Description: "Awaria ul. Lipowa", StartTime: startTime(8)},
			},
		},
	}
	resolver := &mockResolver{results: map[string]*domain.GeocodeResult{
		"lipowa": {Address: "Lipowa, Poznań", Lat: 52.4, Lon: 16.9},
	}}
	publisher := &mockPublisher{err: errors.New("broker down")}

	p := newTestPipeline(feed, resolver, &mockStore{}, &mockIndex{}, publisher)
	require.NoError(t, p.Run(context.Background()))
}

func TestCheckReadiness(t *testing.T) {
	feed := &mockFeed{regions: []string{"Poznań"}}
	p := newTestPipeline(feed, &mockResolver{}, &mockStore{}, &mockIndex{}, nil)

	require.Error(t, p.CheckReadiness(context.Background()))
	require.NoError(t, p.Run(context.Background()))
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestProgressSnapshot(t *testing.T) {
	feed := &mockFeed{
		regions: []string{"Poznań"},
		outages: map[feedKey][]domain.RawOutage{
			{region: "Poznań", kind: domain.KindPlanned}: {
				{Description: "ul. Lipowa", StartTime: startTime(9)},
			},
		},
	}
	resolver := &mockResolver{results: map[string]*domain.GeocodeResult{
		"lipowa": {Address: "Lipowa, Poznań", Lat: 52.4, Lon: 16.9},
	}}

	p := newTestPipeline(feed, resolver, &mockStore{}, &mockIndex{}, nil)
	require.NoError(t, p.Run(context.Background()))

	snap := p.Progress()
	assert.Equal(t, "Poznań", snap["region"])
	assert.Equal(t, 1, snap["outages_fetched"])
	assert.Equal(t, 1, snap["candidates"])
	assert.Equal(t, 1, snap["records_built"])
}
