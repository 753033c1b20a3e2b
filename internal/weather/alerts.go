package weather

import (
	"fmt"
	"math"
	"time"
)

type unitThresholds struct {
	windModerate float64
	windSevere   float64
	heavyRain    float64
	visModerate  float64
	visSevere    float64
}

var thresholds = map[Unit]unitThresholds{
	UnitMetric: {
		windModerate: 50,
		windSevere:   70,
		heavyRain:    5,
		visModerate:  5,
		visSevere:    1,
	},
	UnitImperial: {
		windModerate: 31,
		windSevere:   43,
		heavyRain:    0.2,
		visModerate:  3.1,
		visSevere:    0.6,
	},
}

const (
	windWindow        = 3 * time.Hour
	rainWindow        = 6 * time.Hour
	thunderWindow     = 2 * time.Hour
	visibilityWindow  = 2 * time.Hour
	rainWindowHours   = 6
	heavyRainMinHours = 3
)

// WMO codes for thunderstorm, with and without hail.
var thunderstormCodes = map[int]bool{95: true, 96: true, 99: true}

// Analyze derives hazard alerts from a snapshot and the hours that follow
// it. Hourly precipitation is expected already converted for unit. Each
// rule fires at most once; the engine keeps no memory between calls.
func Analyze(s Snapshot, hourly []HourlyPoint, unit Unit) []Alert {
	t, ok := thresholds[unit]
	if !ok {
		t = thresholds[UnitMetric]
	}
	start := s.Time
	if start.IsZero() && len(hourly) > 0 {
		start = hourly[0].Time
	}

	var alerts []Alert
	if a, ok := windAlert(s, t, unit, start); ok {
		alerts = append(alerts, a)
	}
	if a, ok := rainAlert(upcoming(hourly, s.Time), t, unit, start); ok {
		alerts = append(alerts, a)
	}
	if thunderstormCodes[s.WeatherCode] {
		alerts = append(alerts, Alert{
			Title:       "Thunderstorm Warning",
			Description: "Thunderstorms in the area. Lightning risk; track activity may be suspended.",
			Severity:    SeverityExtreme,
			Start:       start,
			End:         start.Add(thunderWindow),
		})
	}
	if a, ok := visibilityAlert(s, t, unit, start); ok {
		alerts = append(alerts, a)
	}
	return alerts
}

func windAlert(s Snapshot, t unitThresholds, unit Unit, start time.Time) (Alert, bool) {
	peak := math.Max(s.WindSpeed, s.WindGusts)
	var sev Severity
	switch {
	case peak > t.windSevere:
		sev = SeveritySevere
	case peak > t.windModerate:
		sev = SeverityModerate
	default:
		return Alert{}, false
	}
	return Alert{
		Title:       "High Wind Warning",
		Description: fmt.Sprintf("Winds up to %.0f %s expected. Car balance and braking points may be affected.", peak, SpeedUnit(unit)),
		Severity:    sev,
		Start:       start,
		End:         start.Add(windWindow),
	}, true
}

// upcoming drops points before the hour of now.
func upcoming(hourly []HourlyPoint, now time.Time) []HourlyPoint {
	if now.IsZero() {
		return hourly
	}
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	for i, h := range hourly {
		if h.Time.IsZero() || !h.Time.Before(cutoff) {
			return hourly[i:]
		}
	}
	return nil
}

func rainAlert(hourly []HourlyPoint, t unitThresholds, unit Unit, start time.Time) (Alert, bool) {
	window := hourly
	if len(window) > rainWindowHours {
		window = window[:rainWindowHours]
	}
	heavy := 0
	for _, h := range window {
		if h.Precipitation > t.heavyRain {
			heavy++
		}
	}
	if heavy < heavyRainMinHours {
		return Alert{}, false
	}
	return Alert{
		Title: "Heavy Rain Warning",
		Description: fmt.Sprintf("%d of the next %d hours exceed %g %s of rain. Expect standing water and wet-weather tyres.",
			heavy, len(window), t.heavyRain, PrecipitationUnit(unit)),
		Severity: SeveritySevere,
		Start:    start,
		End:      start.Add(rainWindow),
	}, true
}

func visibilityAlert(s Snapshot, t unitThresholds, unit Unit, start time.Time) (Alert, bool) {
	dist := VisibilityDistance(s.Visibility, unit)
	var sev Severity
	switch {
	case dist < t.visSevere:
		sev = SeveritySevere
	case dist < t.visModerate:
		sev = SeverityModerate
	default:
		return Alert{}, false
	}
	return Alert{
		Title:       "Low Visibility",
		Description: fmt.Sprintf("Visibility reduced to %.1f %s.", dist, VisibilityUnit(unit)),
		Severity:    sev,
		Start:       start,
		End:         start.Add(visibilityWindow),
	}, true
}
