package sources

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"curator/internal/logging"
	"curator/internal/media"
	"curator/internal/metadata"
)

// cacheEntry is one persisted (source, query) response.
type cacheEntry struct {
	SavedAt time.Time               `json:"saved_at"`
	Results []metadata.SourceResult `json:"results"`
}

// QueryCache stores adapter responses keyed by (source, kind, query, params).
// A hit within the reuse window bypasses both the network call and the rate
// limiter. Reads may be concurrent; writes are serialized.
type QueryCache struct {
	path   string
	ttl    time.Duration
	logger *slog.Logger
	mu     sync.RWMutex
	byKey  map[string]cacheEntry

	now func() time.Time
}

// NewQueryCache creates a cache persisting to path with the given reuse
// window. An empty path makes all operations no-ops.
func NewQueryCache(path string, ttl time.Duration, logger *slog.Logger) *QueryCache {
	logger = logging.NewComponentLogger(logger, "querycache")

	c := &QueryCache{
		path:   path,
		ttl:    ttl,
		logger: logger,
		byKey:  make(map[string]cacheEntry),
		now:    time.Now,
	}
	if path == "" {
		return c
	}
	if err := c.load(); err != nil {
		logger.Warn("failed to load source cache", logging.Error(err))
	}
	return c
}

// Key builds the canonical cache key for one adapter query.
func Key(source string, kind media.Kind, query string, params Params) string {
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(source)),
		string(kind),
		strings.ToLower(strings.TrimSpace(query)),
		params.CacheKey(),
	}, "|")
}

// Lookup returns the cached results for the key when present and fresh.
func (c *QueryCache) Lookup(key string) ([]metadata.SourceResult, bool) {
	if c.path == "" {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.byKey[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.SavedAt) > c.ttl {
		return nil, false
	}
	return entry.Results, true
}

// Store records the results for a key and persists the cache.
func (c *QueryCache) Store(key string, results []metadata.SourceResult) error {
	if c.path == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byKey[key] = cacheEntry{SavedAt: c.now(), Results: results}
	if err := c.save(); err != nil {
		return fmt.Errorf("persist source cache: %w", err)
	}
	return nil
}

// Clear removes all entries and persists the empty cache.
func (c *QueryCache) Clear() error {
	if c.path == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byKey = make(map[string]cacheEntry)
	if err := c.save(); err != nil {
		return fmt.Errorf("persist source cache: %w", err)
	}
	return nil
}

// Len reports the number of cached responses, fresh or stale.
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byKey)
}

func (c *QueryCache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	entries := make(map[string]cacheEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decode source cache: %w", err)
	}
	c.byKey = entries
	return nil
}

func (c *QueryCache) save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.byKey, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
