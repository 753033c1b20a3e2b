package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/circuit-weather/internal/common"
	"github.com/i474232898/circuit-weather/internal/weather"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

type AppConfig struct {
	Port        string
	HTTPTimeout time.Duration

	// Provider.
	OpenMeteoURL       string
	ProviderRPS        float64
	ProviderBurst      int
	ProviderMaxRetries int

	// Cache tiers.
	MemoryCacheTTL time.Duration
	StaleAfter     time.Duration
	RecentLimit    int

	// Durable store backend.
	StoreDriver string
	SQLitePath  string
	RedisAddr   string

	// Background jobs.
	CleanupInterval time.Duration
	WarmInterval    time.Duration
	WarmCircuits    []string
	WarmUnit        weather.Unit

	// CircuitsFile overrides the embedded circuit registry.
	CircuitsFile string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "8080")
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.OpenMeteoURL = os.Getenv("OPEN_METEO_URL")
	cfg.ProviderRPS = getenvFloat("PROVIDER_RPS", 2)
	cfg.ProviderBurst = getenvInt("PROVIDER_BURST", 4)
	cfg.ProviderMaxRetries = getenvInt("PROVIDER_MAX_RETRIES", 0)

	if cfg.MemoryCacheTTL, err = getenvDuration("MEMORY_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.StaleAfter, err = getenvDuration("STALE_AFTER", 30*time.Minute); err != nil {
		return nil, err
	}
	cfg.RecentLimit = getenvInt("RECENT_LIMIT", 10)

	cfg.StoreDriver = strings.ToLower(getenvDefault("STORE_DRIVER", DriverSQLite))
	switch cfg.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverRedis:
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when STORE_DRIVER=redis")
		}
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want memory, sqlite or redis", cfg.StoreDriver)
	}
	cfg.SQLitePath = getenvDefault("SQLITE_PATH", "circuit-weather.db")

	if cfg.CleanupInterval, err = getenvDuration("CLEANUP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.WarmInterval, err = getenvDuration("WARM_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	cfg.WarmCircuits = common.SplitList(os.Getenv("WARM_CIRCUITS"))
	if cfg.WarmUnit, err = weather.ParseUnit(os.Getenv("WARM_UNIT")); err != nil {
		return nil, fmt.Errorf("invalid WARM_UNIT: %w", err)
	}

	cfg.CircuitsFile = os.Getenv("CIRCUITS_FILE")
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
