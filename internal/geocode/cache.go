// Package geocode resolves street-name candidates to coordinates through a
// geocoding provider, backed by a persistent query cache.
package geocode

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/eneamap/outage-data-etl/internal/domain"
)

// Cache is a persistent geocode lookup table keyed by the exact query
// string. Entries never expire. A stored nil marks a query the provider
// answered negatively; it is never retried. The cache is loaded once at
// process start and saved once at the end of a run.
type Cache struct {
	path    string
	entries map[string]*domain.GeocodeResult
	logger  *slog.Logger
}

// OpenCache loads the cache file at path. A missing or malformed file
// degrades to an empty cache; it is rebuilt over subsequent runs.
func OpenCache(path string, logger *slog.Logger) *Cache {
	c := &Cache{
		path:    path,
		entries: make(map[string]*domain.GeocodeResult),
		logger:  logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read geocode cache, starting empty", "path", path, "error", err)
		}
		return c
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		logger.Warn("malformed geocode cache, starting empty", "path", path, "error", err)
		c.entries = make(map[string]*domain.GeocodeResult)
		return c
	}

	logger.Info("geocode cache loaded", "path", path, "entries", len(c.entries))
	return c
}

// Get returns the cached result for query. The second return value reports
// whether the query was attempted before; a true with a nil result is a
// cached negative.
func (c *Cache) Get(query string) (*domain.GeocodeResult, bool) {
	result, ok := c.entries[query]
	return result, ok
}

// Put stores the outcome for query, nil meaning a permanent negative.
func (c *Cache) Put(query string, result *domain.GeocodeResult) {
	c.entries[query] = result
}

// Len returns the number of cached queries, negatives included.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Save writes the cache to disk atomically. Non-ASCII characters are left
// unescaped so street names stay readable in the file.
func (c *Cache) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".cache-*.json")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c.entries); err != nil {
		tmp.Close()
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
