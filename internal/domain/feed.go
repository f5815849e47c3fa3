package domain

import "context"

// OutageFeed is the upstream announcement source. Implementations are
// expected to tolerate per-region failures; the pipeline logs and skips a
// region/kind slice whose Fetch fails.
type OutageFeed interface {
	// ListRegions returns the regions the feed publishes announcements for.
	ListRegions(ctx context.Context) ([]string, error)

	// Fetch returns the current announcements of one kind for one region.
	Fetch(ctx context.Context, region string, kind OutageKind) ([]RawOutage, error)
}
