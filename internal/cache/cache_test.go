package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/circuit-weather/internal/store"
	"github.com/i474232898/circuit-weather/internal/weather"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Printf(format string, v ...any) {
	l.mu.Lock()
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
	l.mu.Unlock()
}

func (l *recordingLogger) contains(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

// failingKV fails every operation.
type failingKV struct{}

var errDisk = errors.New("disk on fire")

func (failingKV) Get(context.Context, string) (string, bool, error) { return "", false, errDisk }
func (failingKV) Set(context.Context, string, string) error         { return errDisk }
func (failingKV) MultiRemove(context.Context, []string) error       { return errDisk }
func (failingKV) GetAllKeys(context.Context) ([]string, error)      { return nil, errDisk }
func (failingKV) Close() error                                      { return nil }

type countingErrors struct{ ops []string }

func (c *countingErrors) StoreError(op string) { c.ops = append(c.ops, op) }

var t0 = time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)

func payloadAt(ts time.Time, temp float64) weather.Payload {
	return weather.Payload{
		Forecast:  weather.Forecast{Snapshot: weather.Snapshot{Temperature: temp}},
		Unit:      weather.UnitMetric,
		Timestamp: ts,
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	clock := &fakeClock{t: t0}
	c := NewMemoryCache(10*time.Minute, clock.Now)
	key := weather.CacheKey{Latitude: 45.6156, Longitude: 9.2811, Unit: weather.UnitMetric}

	c.Put(key, payloadAt(t0, 21))

	clock.Advance(9 * time.Minute)
	if p, ok := c.Get(key); !ok || p.Snapshot.Temperature != 21 {
		t.Fatalf("expected hit at t0+9m, got %v %+v", ok, p)
	}

	clock.Advance(2 * time.Minute)
	if _, ok := c.Get(key); ok {
		t.Fatalf("expected miss at t0+11m")
	}
}

func TestMemoryCacheKeyIncludesUnit(t *testing.T) {
	c := NewMemoryCache(0, func() time.Time { return t0 })
	metric := weather.CacheKey{Latitude: 1, Longitude: 2, Unit: weather.UnitMetric}
	imperial := weather.CacheKey{Latitude: 1, Longitude: 2, Unit: weather.UnitImperial}

	c.Put(metric, payloadAt(t0, 20))
	if _, ok := c.Get(imperial); ok {
		t.Fatalf("imperial lookup must not hit the metric entry")
	}
	if got := metric.String(); got != "1,2,metric" {
		t.Errorf("key = %q, want 1,2,metric", got)
	}
}

func TestMemoryCacheRejectsOlderWrite(t *testing.T) {
	c := NewMemoryCache(0, func() time.Time { return t0.Add(time.Minute) })
	key := weather.CacheKey{Latitude: 1, Longitude: 2, Unit: weather.UnitMetric}

	if !c.Put(key, payloadAt(t0.Add(30*time.Second), 25)) {
		t.Fatalf("first put rejected")
	}
	if c.Put(key, payloadAt(t0, 10)) {
		t.Fatalf("older put accepted")
	}
	p, _ := c.Get(key)
	if p.Snapshot.Temperature != 25 {
		t.Fatalf("newer entry was overwritten: %+v", p.Snapshot)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Clear left %d entries", c.Len())
	}
}

func TestCircuitCacheStaleness(t *testing.T) {
	clock := &fakeClock{t: t0}
	c := NewCircuitCache(store.NewMemoryStore(), CircuitConfig{Now: clock.Now, Logger: &recordingLogger{}})
	ctx := context.Background()

	c.Save(ctx, "monza", "f1", payloadAt(t0, 23))

	clock.Advance(29 * time.Minute)
	entry, ok := c.Load(ctx, "monza", "f1")
	if !ok || entry.IsStale {
		t.Fatalf("expected fresh entry, got ok=%v stale=%v", ok, entry.IsStale)
	}

	clock.Advance(2 * time.Minute)
	entry, ok = c.Load(ctx, "monza", "f1")
	if !ok {
		t.Fatalf("stale entry must still be served")
	}
	if !entry.IsStale {
		t.Fatalf("expected stale entry after 31 minutes")
	}
	if entry.Payload.Snapshot.Temperature != 23 || !entry.LastViewed.Equal(t0) {
		t.Fatalf("unexpected entry %+v", entry)
	}

	if _, ok := c.Load(ctx, "monza", "motogp"); ok {
		t.Fatalf("category is part of the key")
	}
}

func TestCircuitCacheRecentEviction(t *testing.T) {
	kv := store.NewMemoryStore()
	c := NewCircuitCache(kv, CircuitConfig{Now: func() time.Time { return t0 }, Logger: &recordingLogger{}})
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		c.Save(ctx, fmt.Sprintf("circuit%02d", i), "f1", payloadAt(t0, float64(i)))
	}

	recent := c.Recent(ctx)
	if len(recent) != 10 {
		t.Fatalf("recent has %d entries, want 10", len(recent))
	}
	if recent[0] != "circuit10_f1" {
		t.Errorf("newest first: got %q", recent[0])
	}
	for _, r := range recent {
		if r == "circuit00_f1" {
			t.Fatalf("least recently viewed pair was not evicted")
		}
	}

	// Viewing again moves to the front without duplicating.
	c.Save(ctx, "circuit05", "f1", payloadAt(t0, 5))
	recent = c.Recent(ctx)
	if recent[0] != "circuit05_f1" || len(recent) != 10 {
		t.Fatalf("unexpected recent list %v", recent)
	}
	seen := 0
	for _, r := range recent {
		if r == "circuit05_f1" {
			seen++
		}
	}
	if seen != 1 {
		t.Fatalf("pair appears %d times", seen)
	}

	// Eviction from the list does not delete the record until cleanup.
	if _, ok := c.Load(ctx, "circuit00", "f1"); !ok {
		t.Fatalf("record removed before ClearOld")
	}
	if n := c.ClearOld(ctx); n != 1 {
		t.Fatalf("ClearOld removed %d, want 1", n)
	}
	if _, ok := c.Load(ctx, "circuit00", "f1"); ok {
		t.Fatalf("record survived ClearOld")
	}
	if _, ok := c.Load(ctx, "circuit01", "f1"); !ok {
		t.Fatalf("recent record was removed")
	}
}

func TestCircuitCacheStatsAndClearAll(t *testing.T) {
	kv := store.NewMemoryStore()
	clock := &fakeClock{t: t0}
	c := NewCircuitCache(kv, CircuitConfig{Now: clock.Now, Logger: &recordingLogger{}})
	ctx := context.Background()

	c.Save(ctx, "monza", "f1", payloadAt(t0, 1))
	c.Save(ctx, "spa", "wec", payloadAt(t0.Add(time.Hour), 2))
	kv.Set(ctx, "unrelated", "x")

	stats := c.Stats(ctx)
	if stats.TotalCached != 2 {
		t.Fatalf("TotalCached = %d, want 2", stats.TotalCached)
	}
	if stats.TotalSizeBytes <= 0 {
		t.Fatalf("TotalSizeBytes = %d", stats.TotalSizeBytes)
	}
	if !stats.OldestTimestamp.Equal(t0) || !stats.NewestTimestamp.Equal(t0.Add(time.Hour)) {
		t.Fatalf("timestamps = %v .. %v", stats.OldestTimestamp, stats.NewestTimestamp)
	}

	c.ClearAll(ctx)
	if got := c.Stats(ctx).TotalCached; got != 0 {
		t.Fatalf("TotalCached after ClearAll = %d", got)
	}
	if len(c.Recent(ctx)) != 0 {
		t.Fatalf("recent list survived ClearAll")
	}
	if _, ok, _ := kv.Get(ctx, "unrelated"); !ok {
		t.Fatalf("ClearAll removed a key it does not own")
	}
}

func TestCircuitCacheCorruptRecordIsMiss(t *testing.T) {
	kv := store.NewMemoryStore()
	logger := &recordingLogger{}
	errs := &countingErrors{}
	c := NewCircuitCache(kv, CircuitConfig{Logger: logger, Errors: errs})
	ctx := context.Background()

	kv.Set(ctx, "weather_cache_monza_f1", "{not json")
	if _, ok := c.Load(ctx, "monza", "f1"); ok {
		t.Fatalf("corrupt record must be a miss")
	}
	if !logger.contains("corrupt") {
		t.Fatalf("corrupt record was not logged: %v", logger.lines)
	}
	if len(errs.ops) != 1 || errs.ops[0] != "decode" {
		t.Fatalf("recorded ops = %v", errs.ops)
	}
}

func TestCircuitCacheStoreFailuresAreSwallowed(t *testing.T) {
	logger := &recordingLogger{}
	errs := &countingErrors{}
	c := NewCircuitCache(failingKV{}, CircuitConfig{Logger: logger, Errors: errs})
	ctx := context.Background()

	c.Save(ctx, "monza", "f1", payloadAt(t0, 1))
	if _, ok := c.Load(ctx, "monza", "f1"); ok {
		t.Fatalf("failed read must be a miss")
	}
	if n := c.ClearOld(ctx); n != 0 {
		t.Fatalf("ClearOld = %d on failing store", n)
	}
	c.ClearAll(ctx)
	if s := c.Stats(ctx); s.TotalCached != 0 {
		t.Fatalf("stats on failing store = %+v", s)
	}

	if !logger.contains("disk on fire") {
		t.Fatalf("store failure not logged")
	}
	if len(errs.ops) == 0 || errs.ops[0] != "set" {
		t.Fatalf("recorded ops = %v", errs.ops)
	}
}

func TestClearOldKeepsEverythingOnCorruptRecentList(t *testing.T) {
	kv := store.NewMemoryStore()
	c := NewCircuitCache(kv, CircuitConfig{Logger: &recordingLogger{}})
	ctx := context.Background()

	c.Save(ctx, "monza", "f1", payloadAt(t0, 1))
	kv.Set(ctx, recentKey, "garbage")

	if n := c.ClearOld(ctx); n != 0 {
		t.Fatalf("ClearOld removed %d records with an unreadable recent list", n)
	}
	if _, ok := c.Load(ctx, "monza", "f1"); !ok {
		t.Fatalf("record removed")
	}
}

func TestSaveLeavesCorruptRecentListAlone(t *testing.T) {
	kv := store.NewMemoryStore()
	c := NewCircuitCache(kv, CircuitConfig{Logger: &recordingLogger{}})
	ctx := context.Background()

	slugs := []string{"c1", "c2", "c3", "c4", "c5"}
	for _, slug := range slugs {
		c.Save(ctx, slug, "f1", payloadAt(t0, 1))
	}
	kv.Set(ctx, recentKey, "not json")
	c.Save(ctx, "c9", "f1", payloadAt(t0, 2))

	if raw, _, _ := kv.Get(ctx, recentKey); raw != "not json" {
		t.Fatalf("recent list rewritten to %s", raw)
	}
	if n := c.ClearOld(ctx); n != 0 {
		t.Fatalf("ClearOld removed %d records", n)
	}
	for _, slug := range append(slugs, "c9") {
		if _, ok := c.Load(ctx, slug, "f1"); !ok {
			t.Errorf("record %s lost", slug)
		}
	}
}
