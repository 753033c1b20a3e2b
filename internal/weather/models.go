package weather

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Unit selects the measurement system requested from the provider.
type Unit string

const (
	UnitMetric   Unit = "metric"
	UnitImperial Unit = "imperial"
)

// ErrInvalidUnit is returned by ParseUnit for anything but metric or imperial.
var ErrInvalidUnit = errors.New("unit must be metric or imperial")

// ParseUnit parses a unit name. An empty string means metric.
func ParseUnit(s string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(s))) {
	case "", UnitMetric:
		return UnitMetric, nil
	case UnitImperial:
		return UnitImperial, nil
	default:
		return "", ErrInvalidUnit
	}
}

// Severity classifies how dangerous an alert is.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
	SeverityExtreme  Severity = "extreme"
)

// Snapshot holds the current conditions after sanitization.
// All values are in the unit system the snapshot was built for.
type Snapshot struct {
	Time                time.Time `json:"time"`
	Temperature         float64   `json:"temperature"`
	ApparentTemperature float64   `json:"apparentTemperature"`
	WindSpeed           float64   `json:"windSpeed"`
	WindDirection       float64   `json:"windDirection"`
	WindGusts           float64   `json:"windGusts"`
	Humidity            float64   `json:"humidity"`
	WeatherCode         int       `json:"weatherCode"`
	Pressure            float64   `json:"pressure"`
	Visibility          float64   `json:"visibility"` // meters
	UVIndex             float64   `json:"uvIndex"`
	DewPoint            float64   `json:"dewPoint"`
	CloudCover          float64   `json:"cloudCover"`
}

// HourlyPoint is one hour of forecast.
type HourlyPoint struct {
	Time                     time.Time `json:"time"`
	Temperature              float64   `json:"temperature"`
	WindSpeed                float64   `json:"windSpeed"`
	WindDirection            float64   `json:"windDirection"`
	WindGusts                float64   `json:"windGusts"`
	Humidity                 float64   `json:"humidity"`
	Precipitation            float64   `json:"precipitation"` // converted, see ConvertPrecipitation
	PrecipitationProbability float64   `json:"precipitationProbability"`
	WeatherCode              int       `json:"weatherCode"`
	Pressure                 float64   `json:"pressure"`
	Visibility               float64   `json:"visibility"`
	UVIndex                  float64   `json:"uvIndex"`
	DewPoint                 float64   `json:"dewPoint"`
	CloudCover               float64   `json:"cloudCover"`
}

// DailyPoint summarizes one forecast day.
type DailyPoint struct {
	Date                     string  `json:"date"`
	Weekday                  string  `json:"weekday"`
	TemperatureMin           float64 `json:"temperatureMin"`
	TemperatureMax           float64 `json:"temperatureMax"`
	WeatherCode              int     `json:"weatherCode"`
	PrecipitationProbability float64 `json:"precipitationProbability"`
	PrecipitationSum         float64 `json:"precipitationSum"`
	WindSpeed                float64 `json:"windSpeed"`
	WindDirection            float64 `json:"windDirection"`
	WindGusts                float64 `json:"windGusts"`
	UVIndexMax               float64 `json:"uvIndexMax"`
	Sunrise                  string  `json:"sunrise"`
	Sunset                   string  `json:"sunset"`
}

// Alert is a hazard derived from a forecast. Alerts are recomputed per build.
type Alert struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Forecast is the normalized output of Build.
type Forecast struct {
	Snapshot Snapshot      `json:"snapshot"`
	Daily    []DailyPoint  `json:"daily"`
	Hourly   []HourlyPoint `json:"hourly"`
}

// Payload is what both cache tiers store for one fetch.
type Payload struct {
	Forecast
	Alerts    []Alert   `json:"alerts"`
	Unit      Unit      `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}

// CacheKey identifies a Tier 1 entry.
type CacheKey struct {
	Latitude  float64
	Longitude float64
	Unit      Unit
}

// String renders the key as "lat,lon,unit".
func (k CacheKey) String() string {
	return strconv.FormatFloat(k.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(k.Longitude, 'f', -1, 64) + "," + string(k.Unit)
}

// Target names a registered circuit for the durable tier.
type Target struct {
	Slug      string
	Category  string
	Latitude  float64
	Longitude float64
}

// Result is returned to presentation code.
type Result struct {
	Snapshot  Snapshot      `json:"snapshot"`
	Daily     []DailyPoint  `json:"daily"`
	Hourly    []HourlyPoint `json:"hourly"`
	Alerts    []Alert       `json:"alerts"`
	Unit      Unit          `json:"unit"`
	Timestamp time.Time     `json:"timestamp"`
	IsOffline bool          `json:"isOffline"`
	IsCached  bool          `json:"isCached"`
	IsStale   bool          `json:"isStale"`
}

func resultFromPayload(p Payload) Result {
	return Result{
		Snapshot:  p.Snapshot,
		Daily:     p.Daily,
		Hourly:    p.Hourly,
		Alerts:    p.Alerts,
		Unit:      p.Unit,
		Timestamp: p.Timestamp,
	}
}

// CacheStats describes the durable tier.
type CacheStats struct {
	TotalCached     int       `json:"totalCached"`
	TotalSizeBytes  int       `json:"totalSizeBytes"`
	OldestTimestamp time.Time `json:"oldestTimestamp"`
	NewestTimestamp time.Time `json:"newestTimestamp"`
}
