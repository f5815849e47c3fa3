package domain

import "context"

// Geocoder resolves a free-text query to coordinates.
// A nil result with a nil error means the provider answered but had no
// match; a non-nil error means the provider could not be reached and the
// query is eligible for retry.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*GeocodeResult, error)
}
