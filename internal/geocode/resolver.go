package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eneamap/outage-data-etl/internal/domain"
	"github.com/eneamap/outage-data-etl/internal/observability"
)

// Resolver resolves a street-name candidate within a region, cache-first.
// Negative provider answers are cached permanently; transient provider
// failures are not cached and surface as "no result this run".
type Resolver struct {
	cache    *Cache
	geocoder domain.Geocoder
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewResolver creates a Resolver on top of a cache and a geocoder. The
// geocoder is expected to be rate-limited; Resolve calls it one query at a
// time.
func NewResolver(cache *Cache, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		cache:    cache,
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
	}
}

// Resolve returns coordinates for "<candidate>, <region>", or nil when the
// location cannot be resolved. A provider answer whose address does not
// mention the region is rejected: an ambiguous street name must not resolve
// to a same-named street elsewhere.
func (r *Resolver) Resolve(ctx context.Context, candidate, region string) *domain.GeocodeResult {
	query := fmt.Sprintf("%s, %s", candidate, region)

	if result, ok := r.cache.Get(query); ok {
		r.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result
	}
	r.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := r.geocoder.Geocode(ctx, query)
	if err != nil {
		// Transient: not cached, eligible for retry on the next run.
		r.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		r.logger.Warn("geocoding failed, will retry next run", "query", query, "error", err)
		return nil
	}

	if result == nil {
		r.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		r.logger.Info("no geocode match", "query", query)
		r.cache.Put(query, nil)
		return nil
	}

	if !strings.Contains(strings.ToLower(result.Address), strings.ToLower(region)) {
		r.metrics.GeocodeRequests.WithLabelValues("rejected").Inc()
		r.logger.Info("geocode result outside target region", "query", query, "address", result.Address)
		r.cache.Put(query, nil)
		return nil
	}

	r.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	r.logger.Debug("geocoded", "query", query, "address", result.Address)
	r.cache.Put(query, result)
	return result
}
