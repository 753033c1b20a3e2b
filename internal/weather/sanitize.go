package weather

import "math"

// Physical bounds applied to every provider value.
const (
	minTemperatureC = -60
	maxTemperatureC = 60
	minTemperatureF = -76
	maxTemperatureF = 140

	maxWindSpeedKmh = 300
	maxWindSpeedMph = 186

	defaultHumidity = 50

	maxPrecipitationMm = 500

	defaultPressure = 1013
	minPressure     = 870
	maxPressure     = 1085

	defaultVisibility = 10000
	maxVisibility     = 50000

	maxUVIndex     = 15
	maxWeatherCode = 99
)

// SanitizeFloat returns fallback for NaN or ±Inf and clamps everything else
// into [min, max]. Pass math.Inf for an open bound.
func SanitizeFloat(f, fallback, min, max float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	if f < min {
		return min
	}
	if f > max {
		return max
	}
	return f
}

// Sanitize is SanitizeFloat for an optional provider value.
func Sanitize(v Value, fallback, min, max float64) float64 {
	if !v.Valid {
		return fallback
	}
	return SanitizeFloat(v.N, fallback, min, max)
}

func Temperature(v Value, unit Unit) float64 {
	if unit == UnitImperial {
		return Sanitize(v, 0, minTemperatureF, maxTemperatureF)
	}
	return Sanitize(v, 0, minTemperatureC, maxTemperatureC)
}

func WindSpeed(v Value, unit Unit) float64 {
	if unit == UnitImperial {
		return Sanitize(v, 0, 0, maxWindSpeedMph)
	}
	return Sanitize(v, 0, 0, maxWindSpeedKmh)
}

func Humidity(v Value) float64 {
	return Sanitize(v, defaultHumidity, 0, 100)
}

// Precipitation bounds an hourly amount in millimeters, before conversion.
func Precipitation(v Value) float64 {
	return Sanitize(v, 0, 0, maxPrecipitationMm)
}

func Pressure(v Value) float64 {
	return Sanitize(v, defaultPressure, minPressure, maxPressure)
}

// Visibility bounds a distance in meters.
func Visibility(v Value) float64 {
	return Sanitize(v, defaultVisibility, 0, maxVisibility)
}

func UVIndex(v Value) float64 {
	return Sanitize(v, 0, 0, maxUVIndex)
}

// Percent covers probabilities and cloud cover.
func Percent(v Value) float64 {
	return Sanitize(v, 0, 0, 100)
}

// WeatherCode returns a WMO weather interpretation code.
func WeatherCode(v Value) int {
	return int(Sanitize(v, 0, 0, maxWeatherCode))
}

// WindDirection wraps a direction into [0, 360). Direction is circular so
// it is never clamped.
func WindDirection(v Value) float64 {
	if !v.Valid {
		return 0
	}
	return NormalizeDirection(v.N)
}

// NormalizeDirection wraps d into [0, 360). Non-finite input returns 0.
func NormalizeDirection(d float64) float64 {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	n := math.Mod(math.Mod(d, 360)+360, 360)
	// Mod can round a tiny negative input up to exactly 360.
	if n >= 360 {
		n = 0
	}
	return n
}
