package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrFetchFailed marks a transport failure talking to the provider.
var ErrFetchFailed = errors.New("fetch_failed")

// Service serves normalized weather through the two cache tiers.
type Service struct {
	provider Provider
	memory   MemoryCache
	offline  OfflineCache
	logger   Logger
	recorder Recorder
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(provider Provider, memory MemoryCache, offline OfflineCache, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		memory:   memory,
		offline:  offline,
		logger:   log.Default(),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetWeather returns weather for a coordinate, from Tier 1 when fresh.
func (s *Service) GetWeather(ctx context.Context, lat, lon float64, unit Unit) (Result, error) {
	p, cached, err := s.load(ctx, CacheKey{Latitude: lat, Longitude: lon, Unit: unit})
	if err != nil {
		return Result{}, err
	}
	res := resultFromPayload(p)
	res.IsCached = cached
	return res, nil
}

// GetCircuitWeather is GetWeather for a registered circuit. Every live fetch
// is written to Tier 2; when the fetch fails the Tier 2 copy is served with
// IsOffline set, however old it is.
func (s *Service) GetCircuitWeather(ctx context.Context, t Target, unit Unit) (Result, error) {
	p, cached, err := s.load(ctx, CacheKey{Latitude: t.Latitude, Longitude: t.Longitude, Unit: unit})
	if err == nil {
		if !cached {
			s.offline.Save(ctx, t.Slug, t.Category, p)
		}
		res := resultFromPayload(p)
		res.IsCached = cached
		return res, nil
	}
	if ctx.Err() != nil {
		return Result{}, err
	}

	entry, ok := s.offline.Load(ctx, t.Slug, t.Category)
	s.recorder.CacheLookup("offline", ok)
	if !ok {
		return Result{}, err
	}
	s.logger.Printf("INFO: serving offline weather for %s_%s from %s: %v",
		t.Slug, t.Category, entry.Payload.Timestamp.Format(time.RFC3339), err)

	res := resultFromPayload(entry.Payload)
	res.IsCached = true
	res.IsOffline = true
	res.IsStale = entry.IsStale
	return res, nil
}

// load checks Tier 1 and fetches on a miss. A request whose context ends
// while the fetch is outstanding writes nothing.
func (s *Service) load(ctx context.Context, key CacheKey) (Payload, bool, error) {
	if p, ok := s.memory.Get(key); ok {
		s.recorder.CacheLookup("memory", true)
		return p, true, nil
	}
	s.recorder.CacheLookup("memory", false)

	started := s.now()
	raw, err := s.provider.FetchForecast(ctx, key.Latitude, key.Longitude, key.Unit)
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.logger.Printf("DEBUG: discarding fetch for %s: %v", key, ctxErr)
		return Payload{}, false, ctxErr
	}
	s.recorder.Fetch(s.provider.Name(), err)
	if err != nil {
		s.logger.Printf("ERROR: provider %s fetch failed for %s: %v", s.provider.Name(), key, err)
		return Payload{}, false, fmt.Errorf("%w: %s: %v", ErrFetchFailed, s.provider.Name(), err)
	}

	forecast := Build(raw, key.Unit)
	p := Payload{
		Forecast:  forecast,
		Alerts:    Analyze(forecast.Snapshot, forecast.Hourly, key.Unit),
		Unit:      key.Unit,
		Timestamp: started,
	}
	if !s.memory.Put(key, p) {
		s.logger.Printf("DEBUG: newer entry already cached for %s; keeping it", key)
	}
	return p, false, nil
}

// CacheStats reports on the durable tier.
func (s *Service) CacheStats(ctx context.Context) CacheStats {
	return s.offline.Stats(ctx)
}

// ClearAllCache empties both tiers.
func (s *Service) ClearAllCache(ctx context.Context) {
	s.memory.Clear()
	s.offline.ClearAll(ctx)
}

// ClearOldCache removes durable entries that fell off the recent list and
// returns how many were deleted.
func (s *Service) ClearOldCache(ctx context.Context) int {
	return s.offline.ClearOld(ctx)
}
