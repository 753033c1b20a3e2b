package weather

import (
	"strings"
	"time"
)

// HourlyLimit is the number of hourly points kept from a payload (3 days).
const HourlyLimit = 72

var providerTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Build normalizes a raw provider payload. It never fails: missing or
// garbled values fall back to the defaults of the sanitization layer.
//
// Hourly series start at local midnight; points before the hour of the
// current observation are dropped so the series starts now.
func Build(raw RawForecast, unit Unit) Forecast {
	loc := payloadZone(raw)
	now := parseProviderTime(string(raw.Current.Time), loc)
	first := firstHour(raw.Hourly, now, loc)
	return Forecast{
		Snapshot: buildSnapshot(raw.Current, raw.Hourly, first, now, unit),
		Hourly:   buildHourly(raw.Hourly, first, unit, loc),
		Daily:    buildDaily(raw.Daily, unit),
	}
}

// firstHour returns the index of the first hourly point at or after the
// hour of now. Unparseable times are kept.
func firstHour(h RawHourly, now time.Time, loc *time.Location) int {
	if now.IsZero() {
		return 0
	}
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	for i := range h.Time {
		ts := parseProviderTime(string(h.Time.At(i)), loc)
		if ts.IsZero() || !ts.Before(cutoff) {
			return i
		}
	}
	return len(h.Time)
}

func buildSnapshot(c RawCurrent, h RawHourly, first int, now time.Time, unit Unit) Snapshot {
	return Snapshot{
		Time:                now,
		Temperature:         Temperature(c.Temperature, unit),
		ApparentTemperature: Temperature(c.ApparentTemperature, unit),
		WindSpeed:           WindSpeed(c.WindSpeed, unit),
		WindDirection:       WindDirection(c.WindDirection),
		WindGusts:           WindSpeed(c.WindGusts, unit),
		Humidity:            Humidity(c.Humidity),
		WeatherCode:         WeatherCode(c.WeatherCode),
		Pressure:            Pressure(c.Pressure),
		// The current block often omits these; the current hour stands in.
		Visibility: Visibility(firstValid(c.Visibility, h.Visibility.At(first))),
		UVIndex:    UVIndex(firstValid(c.UVIndex, h.UVIndex.At(first))),
		DewPoint:   Temperature(firstValid(c.DewPoint, h.DewPoint.At(first)), unit),
		CloudCover: Percent(c.CloudCover),
	}
}

func buildHourly(h RawHourly, first int, unit Unit, loc *time.Location) []HourlyPoint {
	end := len(h.Time)
	if end-first > HourlyLimit {
		end = first + HourlyLimit
	}

	points := make([]HourlyPoint, 0, end-first)
	for i := first; i < end; i++ {
		points = append(points, HourlyPoint{
			Time:                     parseProviderTime(string(h.Time.At(i)), loc),
			Temperature:              Temperature(h.Temperature.At(i), unit),
			WindSpeed:                WindSpeed(h.WindSpeed.At(i), unit),
			WindDirection:            WindDirection(h.WindDirection.At(i)),
			WindGusts:                WindSpeed(h.WindGusts.At(i), unit),
			Humidity:                 Humidity(h.Humidity.At(i)),
			Precipitation:            ConvertPrecipitation(Precipitation(h.Precipitation.At(i)), unit),
			PrecipitationProbability: Percent(h.PrecipitationProbability.At(i)),
			WeatherCode:              WeatherCode(h.WeatherCode.At(i)),
			Pressure:                 Pressure(h.Pressure.At(i)),
			Visibility:               Visibility(h.Visibility.At(i)),
			UVIndex:                  UVIndex(h.UVIndex.At(i)),
			DewPoint:                 Temperature(h.DewPoint.At(i), unit),
			CloudCover:               Percent(h.CloudCover.At(i)),
		})
	}
	return points
}

func buildDaily(d RawDaily, unit Unit) []DailyPoint {
	points := make([]DailyPoint, 0, len(d.Time))
	for i := range d.Time {
		date := string(d.Time.At(i))
		// Daily sums can exceed the hourly bound; only the floor applies.
		sum := Sanitize(d.PrecipitationSum.At(i), 0, 0, maxPrecipitationMm*24)

		points = append(points, DailyPoint{
			Date:                     date,
			Weekday:                  weekdayLabel(date),
			TemperatureMin:           Temperature(d.TemperatureMin.At(i), unit),
			TemperatureMax:           Temperature(d.TemperatureMax.At(i), unit),
			WeatherCode:              WeatherCode(d.WeatherCode.At(i)),
			PrecipitationProbability: Percent(d.PrecipitationProbability.At(i)),
			PrecipitationSum:         ConvertPrecipitation(sum, unit),
			WindSpeed:                WindSpeed(d.WindSpeedMax.At(i), unit),
			WindDirection:            WindDirection(d.WindDirectionDominant.At(i)),
			WindGusts:                WindSpeed(d.WindGustsMax.At(i), unit),
			UVIndexMax:               UVIndex(d.UVIndexMax.At(i)),
			Sunrise:                  clockTime(string(d.Sunrise.At(i))),
			Sunset:                   clockTime(string(d.Sunset.At(i))),
		})
	}
	return points
}

func firstValid(vals ...Value) Value {
	for _, v := range vals {
		if v.Valid {
			return v
		}
	}
	return Value{}
}

func payloadZone(raw RawForecast) *time.Location {
	if !raw.UTCOffsetSeconds.Valid {
		return time.UTC
	}
	offset := int(SanitizeFloat(raw.UTCOffsetSeconds.N, 0, -14*3600, 14*3600))
	if offset == 0 {
		return time.UTC
	}
	return time.FixedZone("", offset)
}

// parseProviderTime returns the zero time when s is not a known layout.
func parseProviderTime(s string, loc *time.Location) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range providerTimeLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func weekdayLabel(date string) string {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return ""
	}
	return d.Weekday().String()
}

// clockTime extracts "15:04" from a provider local timestamp.
func clockTime(s string) string {
	ts := parseProviderTime(s, time.UTC)
	if ts.IsZero() {
		return ""
	}
	return ts.Format("15:04")
}
