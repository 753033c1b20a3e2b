package cache

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/circuit-weather/internal/store"
	"github.com/i474232898/circuit-weather/internal/weather"
)

const (
	// DefaultStaleAfter is the age past which a durable entry is flagged stale.
	DefaultStaleAfter = 30 * time.Minute
	// DefaultRecentLimit caps the most-recently-viewed list.
	DefaultRecentLimit = 10

	recordPrefix = "weather_cache_"
	recentKey    = "weather_recent_circuits"
)

// ErrorRecorder counts store failures. *metrics.Metrics satisfies it.
type ErrorRecorder interface {
	StoreError(op string)
}

// CircuitConfig configures a CircuitCache. Zero values use the defaults.
type CircuitConfig struct {
	StaleAfter  time.Duration
	RecentLimit int
	Logger      weather.Logger
	Errors      ErrorRecorder
	Now         func() time.Time
}

// CircuitCache is the Tier 2 cache. Records live under
// weather_cache_<slug>_<category>; a separate list tracks the most
// recently viewed pairs. Store failures are logged and swallowed.
type CircuitCache struct {
	kv          store.KV
	staleAfter  time.Duration
	recentLimit int
	logger      weather.Logger
	errs        ErrorRecorder
	now         func() time.Time

	// mu serializes the read-modify-write of the recent list.
	mu sync.Mutex
}

type record struct {
	WeatherData weather.Payload `json:"weatherData"`
	LastViewed  time.Time       `json:"lastViewed"`
}

// NewCircuitCache creates a CircuitCache over kv.
func NewCircuitCache(kv store.KV, cfg CircuitConfig) *CircuitCache {
	c := &CircuitCache{
		kv:          kv,
		staleAfter:  cfg.StaleAfter,
		recentLimit: cfg.RecentLimit,
		logger:      cfg.Logger,
		errs:        cfg.Errors,
		now:         cfg.Now,
	}
	if c.staleAfter <= 0 {
		c.staleAfter = DefaultStaleAfter
	}
	if c.recentLimit <= 0 {
		c.recentLimit = DefaultRecentLimit
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// PairKey joins a slug and category the way the recent list stores them.
// The join is unambiguous only while neither part contains '_'; the
// circuit registry rejects both.
func PairKey(slug, category string) string {
	return slug + "_" + category
}

// Load returns the stored payload annotated with staleness. An unreadable
// or corrupt record is a miss.
func (c *CircuitCache) Load(ctx context.Context, slug, category string) (weather.OfflineEntry, bool) {
	key := recordPrefix + PairKey(slug, category)
	raw, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		c.fail("get", "ERROR: offline cache read %s: %v", key, err)
		return weather.OfflineEntry{}, false
	}
	if !ok {
		return weather.OfflineEntry{}, false
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		c.fail("decode", "ERROR: offline cache record %s is corrupt: %v", key, err)
		return weather.OfflineEntry{}, false
	}
	return weather.OfflineEntry{
		Payload:    rec.WeatherData,
		LastViewed: rec.LastViewed,
		IsStale:    c.now().Sub(rec.WeatherData.Timestamp) > c.staleAfter,
	}, true
}

// Save overwrites the record and moves the pair to the front of the recent
// list. An unreadable list is left untouched.
func (c *CircuitCache) Save(ctx context.Context, slug, category string, p weather.Payload) {
	pair := PairKey(slug, category)
	data, err := json.Marshal(record{WeatherData: p, LastViewed: c.now()})
	if err != nil {
		c.fail("encode", "ERROR: offline cache encode %s: %v", pair, err)
		return
	}
	if err := c.kv.Set(ctx, recordPrefix+pair, string(data)); err != nil {
		c.fail("set", "ERROR: offline cache write %s: %v", pair, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	recent, ok := c.recent(ctx)
	if !ok {
		return
	}
	next := make([]string, 0, len(recent)+1)
	next = append(next, pair)
	for _, r := range recent {
		if r != pair {
			next = append(next, r)
		}
	}
	if len(next) > c.recentLimit {
		next = next[:c.recentLimit]
	}
	c.writeRecent(ctx, next)
}

// Recent returns the most-recently-viewed pairs, newest first.
func (c *CircuitCache) Recent(ctx context.Context) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	recent, _ := c.recent(ctx)
	return recent
}

// ClearOld deletes records whose pair is no longer in the recent list. It
// deletes nothing when the list cannot be read.
func (c *CircuitCache) ClearOld(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	recent, ok := c.recent(ctx)
	if !ok {
		return 0
	}
	keep := make(map[string]bool, len(recent))
	for _, r := range recent {
		keep[recordPrefix+r] = true
	}

	keys, err := c.recordKeys(ctx)
	if err != nil {
		return 0
	}
	var stale []string
	for _, k := range keys {
		if !keep[k] {
			stale = append(stale, k)
		}
	}
	if len(stale) == 0 {
		return 0
	}
	if err := c.kv.MultiRemove(ctx, stale); err != nil {
		c.fail("remove", "ERROR: offline cache cleanup: %v", err)
		return 0
	}
	c.logger.Printf("INFO: offline cache cleanup removed %d records", len(stale))
	return len(stale)
}

// ClearAll deletes every record and the recent list.
func (c *CircuitCache) ClearAll(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.recordKeys(ctx)
	if err != nil {
		return
	}
	keys = append(keys, recentKey)
	if err := c.kv.MultiRemove(ctx, keys); err != nil {
		c.fail("remove", "ERROR: offline cache clear: %v", err)
	}
}

// Stats summarizes the stored records. Undecodable records count toward
// the totals but not the timestamps.
func (c *CircuitCache) Stats(ctx context.Context) weather.CacheStats {
	var stats weather.CacheStats
	keys, err := c.recordKeys(ctx)
	if err != nil {
		return stats
	}
	for _, k := range keys {
		raw, ok, err := c.kv.Get(ctx, k)
		if err != nil {
			c.fail("get", "ERROR: offline cache stats %s: %v", k, err)
			continue
		}
		if !ok {
			continue
		}
		stats.TotalCached++
		stats.TotalSizeBytes += len(raw)

		var rec record
		if json.Unmarshal([]byte(raw), &rec) != nil || rec.WeatherData.Timestamp.IsZero() {
			continue
		}
		ts := rec.WeatherData.Timestamp
		if stats.OldestTimestamp.IsZero() || ts.Before(stats.OldestTimestamp) {
			stats.OldestTimestamp = ts
		}
		if ts.After(stats.NewestTimestamp) {
			stats.NewestTimestamp = ts
		}
	}
	return stats
}

func (c *CircuitCache) recordKeys(ctx context.Context) ([]string, error) {
	all, err := c.kv.GetAllKeys(ctx)
	if err != nil {
		c.fail("keys", "ERROR: offline cache list keys: %v", err)
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for _, k := range all {
		if strings.HasPrefix(k, recordPrefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// recent reads the list; ok is false when it exists but cannot be read.
// Callers hold mu.
func (c *CircuitCache) recent(ctx context.Context) ([]string, bool) {
	raw, found, err := c.kv.Get(ctx, recentKey)
	if err != nil {
		c.fail("get", "ERROR: offline cache recent list read: %v", err)
		return nil, false
	}
	if !found {
		return nil, true
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		c.fail("decode", "ERROR: offline cache recent list is corrupt: %v", err)
		return nil, false
	}
	return list, true
}

func (c *CircuitCache) writeRecent(ctx context.Context, list []string) {
	data, err := json.Marshal(list)
	if err != nil {
		c.fail("encode", "ERROR: offline cache recent list encode: %v", err)
		return
	}
	if err := c.kv.Set(ctx, recentKey, string(data)); err != nil {
		c.fail("set", "ERROR: offline cache recent list write: %v", err)
	}
}

func (c *CircuitCache) fail(op, format string, args ...any) {
	c.logger.Printf(format, args...)
	if c.errs != nil {
		c.errs.StoreError(op)
	}
}

var _ weather.OfflineCache = (*CircuitCache)(nil)
