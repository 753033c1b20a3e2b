package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/circuit-weather/internal/weather"
)

// Service is the part of weather.Service the jobs need.
type Service interface {
	GetCircuitWeather(ctx context.Context, t weather.Target, unit weather.Unit) (weather.Result, error)
	ClearOldCache(ctx context.Context) int
}

// Config controls the background jobs. A zero interval disables that job.
type Config struct {
	CleanupInterval time.Duration
	WarmInterval    time.Duration
	WarmTargets     []weather.Target
	WarmUnit        weather.Unit
	// JobTimeout bounds each fetch or cleanup; defaults to 30s.
	JobTimeout time.Duration
}

// Scheduler periodically refreshes configured circuits and prunes the
// durable cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Service
	cfg       Config
}

// New creates a new Scheduler.
func New(cfg Config, service Service) *Scheduler {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	if cfg.WarmUnit == "" {
		cfg.WarmUnit = weather.UnitMetric
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		service:   service,
		cfg:       cfg,
	}
}

// Start schedules the periodic jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	scheduled := 0

	if s.cfg.CleanupInterval > 0 {
		if _, err := s.scheduler.Every(s.cfg.CleanupInterval).WaitForSchedule().Do(s.Cleanup); err != nil {
			return err
		}
		scheduled++
	}

	if s.cfg.WarmInterval > 0 && len(s.cfg.WarmTargets) > 0 {
		if _, err := s.scheduler.Every(s.cfg.WarmInterval).Do(s.Warm); err != nil {
			return err
		}
		scheduled++
	}

	if scheduled == 0 {
		log.Println("scheduler: no jobs configured; nothing to schedule")
		return nil
	}
	s.scheduler.StartAsync()
	return nil
}

// Warm fetches every configured circuit concurrently so the cache tiers
// stay populated.
func (s *Scheduler) Warm() {
	log.Println("scheduler: running weather warm job")

	var wg sync.WaitGroup
	for _, t := range s.cfg.WarmTargets {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
			defer cancel()

			res, err := s.service.GetCircuitWeather(ctx, t, s.cfg.WarmUnit)
			if err != nil {
				log.Printf("scheduler: warm failed for %s_%s: %v", t.Slug, t.Category, err)
				return
			}
			if res.IsOffline {
				log.Printf("scheduler: %s_%s served from offline cache", t.Slug, t.Category)
			}
		}()
	}
	wg.Wait()
	log.Println("scheduler: completed weather warm job")
}

// Cleanup removes durable records that fell off the recent list.
func (s *Scheduler) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()

	n := s.service.ClearOldCache(ctx)
	log.Printf("scheduler: cache cleanup removed %d records", n)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
