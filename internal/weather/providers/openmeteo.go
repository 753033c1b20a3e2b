package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/circuit-weather/internal/weather"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// DefaultOpenMeteoURL is the public forecast endpoint.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 4 << 20

var (
	currentFields = []string{
		"temperature_2m", "apparent_temperature", "relative_humidity_2m", "weather_code",
		"wind_speed_10m", "wind_direction_10m", "wind_gusts_10m", "surface_pressure",
		"visibility", "uv_index", "dew_point_2m", "cloud_cover",
	}
	hourlyFields = []string{
		"temperature_2m", "wind_speed_10m", "wind_direction_10m", "wind_gusts_10m",
		"relative_humidity_2m", "precipitation", "precipitation_probability", "weather_code",
		"surface_pressure", "visibility", "uv_index", "dew_point_2m", "cloud_cover",
	}
	dailyFields = []string{
		"weather_code", "temperature_2m_max", "temperature_2m_min", "precipitation_sum",
		"precipitation_probability_max", "wind_speed_10m_max", "wind_gusts_10m_max",
		"wind_direction_10m_dominant", "uv_index_max", "sunrise", "sunset",
	}
)

// OpenMeteoConfig configures the Open-Meteo client.
type OpenMeteoConfig struct {
	BaseURL    string
	Client     *http.Client
	RPS        float64 // <= 0 disables rate limiting
	Burst      int
	MaxRetries int
}

// OpenMeteoProvider implements weather.Provider for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoProvider creates a provider with a circuit breaker that opens
// after five consecutive failures.
func NewOpenMeteoProvider(cfg OpenMeteoConfig) *OpenMeteoProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      cfg.MaxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
			Limiter: limiter,
		},
		circuit: cb,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// FetchForecast requests current, hourly and daily data in the given unit.
func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, lat, lon float64, unit weather.Unit) (weather.RawForecast, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s?%s", p.baseURL, forecastQuery(lat, lon, unit).Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.RawForecast{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return weather.RawForecast{}, fmt.Errorf("read openmeteo body: %w", err)
	}
	return weather.ParseForecast(body)
}

func forecastQuery(lat, lon float64, unit weather.Unit) url.Values {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("current", strings.Join(currentFields, ","))
	values.Set("hourly", strings.Join(hourlyFields, ","))
	values.Set("daily", strings.Join(dailyFields, ","))
	values.Set("timezone", "auto")
	values.Set("forecast_days", "7")
	if unit == weather.UnitImperial {
		values.Set("temperature_unit", "fahrenheit")
		values.Set("wind_speed_unit", "mph")
	}
	return values
}
