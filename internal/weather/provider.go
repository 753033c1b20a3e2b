package weather

import (
	"context"
	"time"
)

// Provider abstracts a forecast source (Open-Meteo). Implementations ask
// the source for temperature and wind speed already in unit; precipitation
// always arrives in millimeters.
type Provider interface {
	Name() string
	FetchForecast(ctx context.Context, lat, lon float64, unit Unit) (RawForecast, error)
}

// MemoryCache is the short-TTL Tier 1 cache.
type MemoryCache interface {
	Get(key CacheKey) (Payload, bool)
	// Put stores p unless a newer payload is already held for key.
	Put(key CacheKey, p Payload) bool
	Clear()
}

// OfflineEntry is a Tier 2 record annotated at read time.
type OfflineEntry struct {
	Payload    Payload
	LastViewed time.Time
	IsStale    bool
}

// OfflineCache is the durable per-circuit Tier 2 cache. Store failures are
// logged by the implementation and never returned.
type OfflineCache interface {
	Load(ctx context.Context, slug, category string) (OfflineEntry, bool)
	Save(ctx context.Context, slug, category string, p Payload)
	Stats(ctx context.Context) CacheStats
	ClearAll(ctx context.Context)
	ClearOld(ctx context.Context) int
}

// Logger receives diagnostics. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

// Recorder receives cache and fetch outcomes, typically for metrics.
type Recorder interface {
	CacheLookup(tier string, hit bool)
	Fetch(provider string, err error)
}

type nopRecorder struct{}

func (nopRecorder) CacheLookup(string, bool) {}
func (nopRecorder) Fetch(string, error)      {}
