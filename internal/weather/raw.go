package weather

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
)

// ErrMalformedBody is returned when a provider body is not a JSON object.
var ErrMalformedBody = errors.New("forecast body is not a JSON object")

// Value is an optional number from the provider. It is valid only when the
// JSON held a finite number; null, strings, objects and absence all decode
// to an invalid Value without error.
type Value struct {
	N     float64
	Valid bool
}

// Num returns a valid Value.
func Num(f float64) Value {
	return Value{N: f, Valid: !math.IsNaN(f) && !math.IsInf(f, 0)}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var f float64
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) || json.Unmarshal(data, &f) != nil {
		*v = Value{}
		return nil
	}
	*v = Num(f)
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.N)
}

// Text is an optional string. Non-string JSON decodes to "".
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = ""
		return nil
	}
	*t = Text(s)
	return nil
}

// Series is a provider column. A non-array decodes to an empty series.
type Series []Value

func (s *Series) UnmarshalJSON(data []byte) error {
	var vals []Value
	if err := json.Unmarshal(data, &vals); err != nil {
		*s = nil
		return nil
	}
	*s = vals
	return nil
}

// At returns the i-th value, or an invalid Value when out of range.
func (s Series) At(i int) Value {
	if i < 0 || i >= len(s) {
		return Value{}
	}
	return s[i]
}

// TextSeries is a column of strings.
type TextSeries []Text

func (s *TextSeries) UnmarshalJSON(data []byte) error {
	var vals []Text
	if err := json.Unmarshal(data, &vals); err != nil {
		*s = nil
		return nil
	}
	*s = vals
	return nil
}

func (s TextSeries) At(i int) Text {
	if i < 0 || i >= len(s) {
		return ""
	}
	return s[i]
}

// RawCurrent mirrors the Open-Meteo "current" object.
type RawCurrent struct {
	Time                Text  `json:"time"`
	Temperature         Value `json:"temperature_2m"`
	ApparentTemperature Value `json:"apparent_temperature"`
	Humidity            Value `json:"relative_humidity_2m"`
	WeatherCode         Value `json:"weather_code"`
	WindSpeed           Value `json:"wind_speed_10m"`
	WindDirection       Value `json:"wind_direction_10m"`
	WindGusts           Value `json:"wind_gusts_10m"`
	Pressure            Value `json:"surface_pressure"`
	Visibility          Value `json:"visibility"`
	UVIndex             Value `json:"uv_index"`
	DewPoint            Value `json:"dew_point_2m"`
	CloudCover          Value `json:"cloud_cover"`
}

// RawHourly mirrors the Open-Meteo "hourly" object.
type RawHourly struct {
	Time                     TextSeries `json:"time"`
	Temperature              Series     `json:"temperature_2m"`
	WindSpeed                Series     `json:"wind_speed_10m"`
	WindDirection            Series     `json:"wind_direction_10m"`
	WindGusts                Series     `json:"wind_gusts_10m"`
	Humidity                 Series     `json:"relative_humidity_2m"`
	Precipitation            Series     `json:"precipitation"`
	PrecipitationProbability Series     `json:"precipitation_probability"`
	WeatherCode              Series     `json:"weather_code"`
	Pressure                 Series     `json:"surface_pressure"`
	Visibility               Series     `json:"visibility"`
	UVIndex                  Series     `json:"uv_index"`
	DewPoint                 Series     `json:"dew_point_2m"`
	CloudCover               Series     `json:"cloud_cover"`
}

// RawDaily mirrors the Open-Meteo "daily" object.
type RawDaily struct {
	Time                     TextSeries `json:"time"`
	WeatherCode              Series     `json:"weather_code"`
	TemperatureMax           Series     `json:"temperature_2m_max"`
	TemperatureMin           Series     `json:"temperature_2m_min"`
	PrecipitationSum         Series     `json:"precipitation_sum"`
	PrecipitationProbability Series     `json:"precipitation_probability_max"`
	WindSpeedMax             Series     `json:"wind_speed_10m_max"`
	WindGustsMax             Series     `json:"wind_gusts_10m_max"`
	WindDirectionDominant    Series     `json:"wind_direction_10m_dominant"`
	UVIndexMax               Series     `json:"uv_index_max"`
	Sunrise                  TextSeries `json:"sunrise"`
	Sunset                   TextSeries `json:"sunset"`
}

// RawForecast is the provider payload. Sections of the wrong shape are
// left empty instead of failing the decode.
type RawForecast struct {
	UTCOffsetSeconds Value      `json:"utc_offset_seconds"`
	Current          RawCurrent `json:"current"`
	Hourly           RawHourly  `json:"hourly"`
	Daily            RawDaily   `json:"daily"`
}

func (r *RawForecast) UnmarshalJSON(data []byte) error {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil || sections == nil {
		return ErrMalformedBody
	}
	*r = RawForecast{}
	if raw, ok := sections["utc_offset_seconds"]; ok {
		_ = json.Unmarshal(raw, &r.UTCOffsetSeconds)
	}
	if raw, ok := sections["current"]; ok {
		_ = json.Unmarshal(raw, &r.Current)
	}
	if raw, ok := sections["hourly"]; ok {
		_ = json.Unmarshal(raw, &r.Hourly)
	}
	if raw, ok := sections["daily"]; ok {
		_ = json.Unmarshal(raw, &r.Daily)
	}
	return nil
}

// ParseForecast decodes a provider body.
func ParseForecast(body []byte) (RawForecast, error) {
	var raw RawForecast
	if len(bytes.TrimSpace(body)) == 0 {
		return raw, ErrMalformedBody
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return RawForecast{}, ErrMalformedBody
	}
	return raw, nil
}
