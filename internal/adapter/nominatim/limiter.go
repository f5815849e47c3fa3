package nominatim

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/eneamap/outage-data-etl/internal/domain"
)

// RateLimiter serializes calls to a geocoder and enforces the provider's
// usage policy: a minimum delay between consecutive calls and a longer wait
// after a failed one. The mutex guarantees one in-flight request at a time.
type RateLimiter struct {
	inner      domain.Geocoder
	minDelay   time.Duration
	errorDelay time.Duration
	clock      clockwork.Clock

	mu          sync.Mutex
	nextAllowed time.Time
}

// NewRateLimiter wraps a geocoder with rate limiting.
func NewRateLimiter(inner domain.Geocoder, minDelay, errorDelay time.Duration, clock clockwork.Clock) *RateLimiter {
	return &RateLimiter{
		inner:      inner,
		minDelay:   minDelay,
		errorDelay: errorDelay,
		clock:      clock,
	}
}

// Geocode waits out the remainder of the inter-call delay, then delegates.
// Cancellation during the wait returns the context error without touching
// the provider.
func (r *RateLimiter) Geocode(ctx context.Context, query string) (*domain.GeocodeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if wait := r.nextAllowed.Sub(r.clock.Now()); wait > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-r.clock.After(wait):
		}
	}

	result, err := r.inner.Geocode(ctx, query)

	delay := r.minDelay
	if err != nil {
		delay = r.errorDelay
	}
	r.nextAllowed = r.clock.Now().Add(delay)

	return result, err
}
