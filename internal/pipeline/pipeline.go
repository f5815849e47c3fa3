package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/eneamap/outage-data-etl/internal/domain"
	"github.com/eneamap/outage-data-etl/internal/observability"
)

// CandidateResolver turns a street candidate into coordinates, or nil
// when the candidate cannot be placed.
type CandidateResolver interface {
	Resolve(ctx context.Context, candidate, region string) *domain.GeocodeResult
}

// DayMerger merges records into the day partition for the given date and
// returns the resulting file plus the records that were actually new.
type DayMerger interface {
	Merge(date string, records []domain.OutageRecord) (domain.DayFile, []domain.OutageRecord, error)
}

// DateRegistrar records that a day partition exists.
type DateRegistrar interface {
	Register(date string) error
}

// RecordPublisher forwards newly merged records to a downstream consumer.
type RecordPublisher interface {
	PublishRecords(ctx context.Context, records []domain.OutageRecord) error
}

// Pipeline orchestrates one extract-geocode-merge run over all regions.
type Pipeline struct {
	feed      domain.OutageFeed
	extractor *domain.AddressExtractor
	resolver  CandidateResolver
	store     DayMerger
	index     DateRegistrar
	publisher RecordPublisher
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	ready atomic.Bool

	mu       sync.Mutex
	progress progressState
}

type progressState struct {
	region       string
	kind         domain.OutageKind
	fetched      int
	candidates   int
	recordsBuilt int
}

// New creates a Pipeline. publisher may be nil when downstream publishing
// is disabled.
func New(feed domain.OutageFeed, extractor *domain.AddressExtractor, resolver CandidateResolver, store DayMerger, index DateRegistrar, publisher RecordPublisher, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		feed:      feed,
		extractor: extractor,
		resolver:  resolver,
		store:     store,
		index:     index,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a run has merged its records, or an
// error describing why the data is not yet usable.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("run has not completed yet")
	}
	return nil
}

// Progress returns a snapshot of the current run for the progress endpoint.
func (p *Pipeline) Progress() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]any{
		"region":          p.progress.region,
		"kind":            string(p.progress.kind),
		"outages_fetched": p.progress.fetched,
		"candidates":      p.progress.candidates,
		"records_built":   p.progress.recordsBuilt,
	}
}

// Run executes a single run: every region and kind is fetched, street
// candidates are geocoded, and the resulting records are merged into
// today's partition. A failing feed slice is skipped; a failing merge
// aborts the run.
func (p *Pipeline) Run(ctx context.Context) error {
	start := p.clock.Now()
	date := start.UTC().Format("2006-01-02")

	regions, err := p.feed.ListRegions(ctx)
	if err != nil {
		return fmt.Errorf("listing regions: %w", err)
	}
	p.logger.Info("run started", "date", date, "regions", len(regions))

	kinds := []domain.OutageKind{domain.KindPlanned, domain.KindUnplanned}

	var records []domain.OutageRecord
	for _, region := range regions {
		for _, kind := range kinds {
			built, err := p.processSlice(ctx, region, kind)
			if err != nil {
				return err
			}
			records = append(records, built...)
		}
	}

	day, added, err := p.store.Merge(date, records)
	if err != nil {
		return fmt.Errorf("merging day %s: %w", date, err)
	}
	p.metrics.RecordsMerged.Add(float64(len(added)))
	p.metrics.RecordsDuplicate.Add(float64(len(records) - len(added)))

	if len(day.Outages) > 0 {
		if err := p.index.Register(date); err != nil {
			return fmt.Errorf("registering day %s: %w", date, err)
		}
	}

	if p.publisher != nil && len(added) > 0 {
		if err := p.publisher.PublishRecords(ctx, added); err != nil {
			p.logger.Warn("publishing new records failed", "error", err, "count", len(added))
		}
	}

	p.ready.Store(true)
	p.metrics.RunDuration.Observe(p.clock.Since(start).Seconds())
	p.logger.Info("run finished",
		"date", date,
		"records_built", len(records),
		"records_added", len(added),
		"day_total", len(day.Outages),
	)
	return nil
}

// processSlice handles one region and kind. Feed errors are logged and
// skipped so the remaining slices still run.
func (p *Pipeline) processSlice(ctx context.Context, region string, kind domain.OutageKind) ([]domain.OutageRecord, error) {
	p.setProgress(region, kind)

	raws, err := p.feed.Fetch(ctx, region, kind)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.Error("fetching outages failed", "region", region, "kind", kind, "error", err)
		p.metrics.FeedErrors.Inc()
		return nil, nil
	}
	p.metrics.OutagesFetched.WithLabelValues(string(kind)).Add(float64(len(raws)))
	p.addFetched(len(raws))

	var records []domain.OutageRecord
	for _, raw := range raws {
		candidates := p.extractor.Extract(raw.Description, region)
		p.metrics.CandidatesFound.Add(float64(len(candidates)))
		p.addCandidates(len(candidates))

		for _, candidate := range candidates {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			resolved := p.resolver.Resolve(ctx, candidate, region)
			if resolved == nil {
				continue
			}
			records = append(records, domain.BuildRecord(raw, region, kind, *resolved))
			p.addRecordsBuilt(1)
		}
	}
	return records, nil
}

func (p *Pipeline) setProgress(region string, kind domain.OutageKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress.region = region
	p.progress.kind = kind
}

func (p *Pipeline) addFetched(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress.fetched += n
}

func (p *Pipeline) addCandidates(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress.candidates += n
}

func (p *Pipeline) addRecordsBuilt(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress.recordsBuilt += n
}
