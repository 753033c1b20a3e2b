package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/i474232898/circuit-weather/internal/weather"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "HTTP_TIMEOUT", "STORE_DRIVER", "MEMORY_CACHE_TTL", "WARM_CIRCUITS", "WARM_UNIT", "PROVIDER_RPS"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "8080" || cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("port/timeout = %s/%v", cfg.Port, cfg.HTTPTimeout)
	}
	if cfg.MemoryCacheTTL != 10*time.Minute || cfg.StaleAfter != 30*time.Minute || cfg.RecentLimit != 10 {
		t.Errorf("cache defaults = %v/%v/%d", cfg.MemoryCacheTTL, cfg.StaleAfter, cfg.RecentLimit)
	}
	if cfg.StoreDriver != DriverSQLite || cfg.WarmUnit != weather.UnitMetric {
		t.Errorf("driver/unit = %s/%s", cfg.StoreDriver, cfg.WarmUnit)
	}
	if cfg.ProviderRPS != 2 || cfg.ProviderMaxRetries != 0 {
		t.Errorf("provider = %v rps, %d retries", cfg.ProviderRPS, cfg.ProviderMaxRetries)
	}
	if len(cfg.WarmCircuits) != 0 {
		t.Errorf("WarmCircuits = %v", cfg.WarmCircuits)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MEMORY_CACHE_TTL", "5m")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("WARM_CIRCUITS", " monza, ,spa ")
	t.Setenv("WARM_UNIT", "imperial")
	t.Setenv("PROVIDER_BURST", "not-an-int")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.MemoryCacheTTL != 5*time.Minute {
		t.Errorf("MemoryCacheTTL = %v", cfg.MemoryCacheTTL)
	}
	if cfg.StoreDriver != DriverMemory {
		t.Errorf("StoreDriver = %s", cfg.StoreDriver)
	}
	if want := []string{"monza", "spa"}; !reflect.DeepEqual(cfg.WarmCircuits, want) {
		t.Errorf("WarmCircuits = %v, want %v", cfg.WarmCircuits, want)
	}
	if cfg.WarmUnit != weather.UnitImperial {
		t.Errorf("WarmUnit = %s", cfg.WarmUnit)
	}
	if cfg.ProviderBurst != 4 {
		t.Errorf("bad int should fall back, got %d", cfg.ProviderBurst)
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad duration", map[string]string{"STALE_AFTER": "half an hour"}},
		{"bad driver", map[string]string{"STORE_DRIVER": "postgres"}},
		{"redis without addr", map[string]string{"STORE_DRIVER": "redis", "REDIS_ADDR": ""}},
		{"bad unit", map[string]string{"WARM_UNIT": "kelvin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}
