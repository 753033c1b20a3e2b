package weather

import "math"

const (
	mmPerInch     = 25.4
	metersPerMile = 1609.344
)

// ConvertPrecipitation converts a millimeter amount for display. The
// provider always reports precipitation in millimeters.
func ConvertPrecipitation(mm float64, unit Unit) float64 {
	if unit == UnitImperial {
		return roundTo(mm/mmPerInch, 3)
	}
	return roundTo(mm, 2)
}

// PrecipitationUnit returns the display suffix for precipitation.
func PrecipitationUnit(unit Unit) string {
	if unit == UnitImperial {
		return "in"
	}
	return "mm"
}

// VisibilityDistance converts meters to kilometers or miles.
func VisibilityDistance(meters float64, unit Unit) float64 {
	if unit == UnitImperial {
		return meters / metersPerMile
	}
	return meters / 1000
}

func VisibilityUnit(unit Unit) string {
	if unit == UnitImperial {
		return "mi"
	}
	return "km"
}

func SpeedUnit(unit Unit) string {
	if unit == UnitImperial {
		return "mph"
	}
	return "km/h"
}

func TemperatureUnit(unit Unit) string {
	if unit == UnitImperial {
		return "°F"
	}
	return "°C"
}

func roundTo(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
