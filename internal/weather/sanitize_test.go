package weather

import (
	"encoding/json"
	"math"
	"testing"
)

func TestSanitizeFloat(t *testing.T) {
	tests := []struct {
		name     string
		in       float64
		fallback float64
		min, max float64
		want     float64
	}{
		{name: "in range", in: 12.5, fallback: 0, min: -10, max: 20, want: 12.5},
		{name: "below min", in: -11, fallback: 0, min: -10, max: 20, want: -10},
		{name: "above max", in: 21, fallback: 0, min: -10, max: 20, want: 20},
		{name: "NaN", in: math.NaN(), fallback: 7, min: -10, max: 20, want: 7},
		{name: "+Inf", in: math.Inf(1), fallback: 7, min: -10, max: 20, want: 7},
		{name: "-Inf", in: math.Inf(-1), fallback: 7, min: -10, max: 20, want: 7},
		{name: "open bounds", in: 1e9, fallback: 0, min: math.Inf(-1), max: math.Inf(1), want: 1e9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFloat(tt.in, tt.fallback, tt.min, tt.max); got != tt.want {
				t.Errorf("SanitizeFloat(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeDecodedValues(t *testing.T) {
	// Anything that is not a finite JSON number must come back as the
	// fallback, and the result must stay inside the bounds.
	inputs := []string{`"not-a-number"`, `null`, `true`, `{}`, `[]`, `"12"`, `1e400`, `-3000`, `3000`, `42`}
	for _, in := range inputs {
		var v Value
		if err := json.Unmarshal([]byte(in), &v); err != nil {
			// 1e400 overflows float64; the decoder still must not error.
			t.Fatalf("decode %s: %v", in, err)
		}
		got := Sanitize(v, 5, 0, 100)
		if math.IsNaN(got) || math.IsInf(got, 0) || got < 0 || got > 100 {
			t.Errorf("Sanitize(%s) = %v, out of [0,100]", in, got)
		}
	}

	var v Value
	json.Unmarshal([]byte(`"not-a-number"`), &v)
	if got := Sanitize(v, 5, 0, 100); got != 5 {
		t.Errorf("string input = %v, want fallback 5", got)
	}
	json.Unmarshal([]byte(`null`), &v)
	if got := Sanitize(v, 5, 0, 100); got != 5 {
		t.Errorf("null input = %v, want fallback 5", got)
	}
}

func TestQuantityBounds(t *testing.T) {
	huge, tiny := Num(1e6), Num(-1e6)
	tests := []struct {
		name     string
		fn       func(Value) float64
		fallback float64
		min, max float64
	}{
		{"temperature metric", func(v Value) float64 { return Temperature(v, UnitMetric) }, 0, -60, 60},
		{"temperature imperial", func(v Value) float64 { return Temperature(v, UnitImperial) }, 0, -76, 140},
		{"wind metric", func(v Value) float64 { return WindSpeed(v, UnitMetric) }, 0, 0, 300},
		{"wind imperial", func(v Value) float64 { return WindSpeed(v, UnitImperial) }, 0, 0, 186},
		{"humidity", Humidity, 50, 0, 100},
		{"precipitation", Precipitation, 0, 0, 500},
		{"pressure", Pressure, 1013, 870, 1085},
		{"visibility", Visibility, 10000, 0, 50000},
		{"uv", UVIndex, 0, 0, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(Value{}); got != tt.fallback {
				t.Errorf("missing = %v, want %v", got, tt.fallback)
			}
			if got := tt.fn(huge); got != tt.max {
				t.Errorf("huge = %v, want %v", got, tt.max)
			}
			if got := tt.fn(tiny); got != tt.min {
				t.Errorf("tiny = %v, want %v", got, tt.min)
			}
		})
	}
}

func TestNormalizeDirection(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0}, {359.5, 359.5}, {360, 0}, {-90, 270}, {725, 5}, {-725, 355}, {-1e-20, 0},
	}
	for _, tt := range tests {
		if got := NormalizeDirection(tt.in); got != tt.want {
			t.Errorf("NormalizeDirection(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for d := -1080.0; d <= 1080; d += 7 {
		n := NormalizeDirection(d)
		if n < 0 || n >= 360 {
			t.Fatalf("NormalizeDirection(%v) = %v, out of [0,360)", d, n)
		}
		for k := -3; k <= 3; k++ {
			if got := NormalizeDirection(d + 360*float64(k)); got != n {
				t.Fatalf("NormalizeDirection(%v+360*%d) = %v, want %v", d, k, got, n)
			}
		}
	}

	if got := WindDirection(Num(-45)); got != 315 {
		t.Errorf("WindDirection(-45) = %v, want 315", got)
	}
	if got := WindDirection(Value{}); got != 0 {
		t.Errorf("WindDirection(missing) = %v, want 0", got)
	}
	if got := NormalizeDirection(math.NaN()); got != 0 {
		t.Errorf("NormalizeDirection(NaN) = %v", got)
	}
}

func TestWeatherCodeAndPercent(t *testing.T) {
	if got := WeatherCode(Num(95.7)); got != 95 {
		t.Errorf("WeatherCode(95.7) = %d", got)
	}
	if got := WeatherCode(Num(1000)); got != 99 {
		t.Errorf("WeatherCode(1000) = %d", got)
	}
	if got := Percent(Num(140)); got != 100 {
		t.Errorf("Percent(140) = %v", got)
	}
}
