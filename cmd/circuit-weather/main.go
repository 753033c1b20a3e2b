package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/circuit-weather/internal/api/http"
	"github.com/i474232898/circuit-weather/internal/cache"
	"github.com/i474232898/circuit-weather/internal/circuit"
	"github.com/i474232898/circuit-weather/internal/config"
	"github.com/i474232898/circuit-weather/internal/metrics"
	"github.com/i474232898/circuit-weather/internal/scheduler"
	"github.com/i474232898/circuit-weather/internal/store"
	"github.com/i474232898/circuit-weather/internal/weather"
	"github.com/i474232898/circuit-weather/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	registry, err := circuit.Load(cfg.CircuitsFile)
	if err != nil {
		log.Fatalf("failed to load circuits: %v", err)
	}

	kv, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer kv.Close()

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Open-Meteo with rate limiting, backoff and a circuit breaker.
	provider := providers.NewOpenMeteoProvider(providers.OpenMeteoConfig{
		BaseURL:    cfg.OpenMeteoURL,
		Client:     httpClient,
		RPS:        cfg.ProviderRPS,
		Burst:      cfg.ProviderBurst,
		MaxRetries: cfg.ProviderMaxRetries,
	})

	memory := cache.NewMemoryCache(cfg.MemoryCacheTTL, nil)
	offline := cache.NewCircuitCache(kv, cache.CircuitConfig{
		StaleAfter:  cfg.StaleAfter,
		RecentLimit: cfg.RecentLimit,
		Errors:      m,
	})
	service := weather.NewService(provider, memory, offline, weather.WithRecorder(m))

	// Background warm-up and durable cache cleanup.
	sched := scheduler.New(scheduler.Config{
		CleanupInterval: cfg.CleanupInterval,
		WarmInterval:    cfg.WarmInterval,
		WarmTargets:     warmTargets(registry, cfg.WarmCircuits),
		WarmUnit:        cfg.WarmUnit,
	}, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "circuit-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "circuit-weather",
			"store":   cfg.StoreDriver,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// API routes.
	httpapi.RegisterRoutes(app, service, registry)

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func openStore(cfg *config.AppConfig) (store.KV, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return store.NewMemoryStore(), nil
	case config.DriverRedis:
		rs := store.NewRedisStore(cfg.RedisAddr, "circuit-weather:")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return rs, nil
	default:
		return store.OpenSQLite(cfg.SQLitePath)
	}
}

// warmTargets resolves slugs, skipping unknown ones.
func warmTargets(registry *circuit.Registry, slugs []string) []weather.Target {
	var targets []weather.Target
	for _, slug := range slugs {
		c, err := registry.Get(slug)
		if err != nil {
			log.Printf("ERROR: warm circuit %q: %v", slug, err)
			continue
		}
		targets = append(targets, c.Target())
	}
	return targets
}
