// Package enea fetches outage announcements from the distribution
// operator's public portal.
package enea

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/eneamap/outage-data-etl/internal/domain"
)

// Client implements domain.OutageFeed. A circuit breaker sits in front of
// the portal so a flapping upstream stops being hammered; a tripped breaker
// surfaces as a fetch error, which the pipeline logs and skips like any
// other feed failure.
type Client struct {
	baseURL    string
	regions    []string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a feed client. When regions is non-empty it is used as
// the region list; otherwise the portal's region directory is queried.
func NewClient(baseURL string, timeout time.Duration, regions []string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		regions: regions,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "enea-feed",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		logger: logger,
	}
}

// ListRegions returns the configured regions, or the portal's own list when
// none were configured.
func (c *Client) ListRegions(ctx context.Context) ([]string, error) {
	if len(c.regions) > 0 {
		out := make([]string, len(c.regions))
		copy(out, c.regions)
		return out, nil
	}

	body, err := c.get(ctx, c.baseURL+"/regions")
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}

	var regions []string
	if err := json.Unmarshal(body, &regions); err != nil {
		return nil, fmt.Errorf("decode regions: %w", err)
	}
	return regions, nil
}

// Fetch returns the current announcements of one kind for one region.
func (c *Client) Fetch(ctx context.Context, region string, kind domain.OutageKind) ([]domain.RawOutage, error) {
	params := url.Values{
		"region": {region},
		"type":   {string(kind)},
	}

	body, err := c.get(ctx, c.baseURL+"/outages?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch %s outages for %s: %w", kind, region, err)
	}

	var items []feedOutage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode %s outages for %s: %w", kind, region, err)
	}

	outages := make([]domain.RawOutage, 0, len(items))
	for _, item := range items {
		outages = append(outages, domain.RawOutage{
			Description: item.Description,
			StartTime:   item.StartTime,
			EndTime:     item.EndTime,
			Kind:        kind,
		})
	}
	return outages, nil
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	body, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("feed API error: status %d: %s", resp.StatusCode, data)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}
	return body.([]byte), nil
}

// feedOutage is the portal's wire shape for one announcement. Timestamps
// are RFC 3339 or null.
type feedOutage struct {
	Description string     `json:"description"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
}
