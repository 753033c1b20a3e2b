// Package wind decomposes ambient wind into headwind, tailwind and
// crosswind components along a track.
package wind

import "math"

// ComponentType names the dominant component.
type ComponentType string

const (
	Headwind  ComponentType = "headwind"
	Tailwind  ComponentType = "tailwind"
	Crosswind ComponentType = "crosswind"
)

// crosswindFactor scales crosswind when deciding whether a parallel
// component dominates.
const crosswindFactor = 0.7

// Components is the decomposition of one wind vector against one heading.
type Components struct {
	Headwind  float64       `json:"headwind"`
	Tailwind  float64       `json:"tailwind"`
	Crosswind float64       `json:"crosswind"`
	Type      ComponentType `json:"type"`
	Strength  float64       `json:"strength"` // dominant / windSpeed, in [0, 1]
}

// Decompose splits a wind blowing from windFromDeg at windSpeed into
// components relative to a track heading. Wind from the heading is a
// headwind. Strength is 0 when windSpeed is zero or not usable.
func Decompose(trackHeadingDeg, windFromDeg, windSpeed float64) Components {
	if math.IsNaN(windSpeed) || math.IsInf(windSpeed, 0) || windSpeed < 0 {
		windSpeed = 0
	}
	rel := RelativeAngle(trackHeadingDeg, windFromDeg) * math.Pi / 180

	parallel := windSpeed * math.Cos(rel)
	perpendicular := windSpeed * math.Sin(rel)

	c := Components{
		Headwind:  math.Max(0, parallel),
		Tailwind:  math.Max(0, -parallel),
		Crosswind: math.Abs(perpendicular),
	}

	var dominant float64
	switch {
	case c.Headwind > c.Tailwind && c.Headwind > crosswindFactor*c.Crosswind:
		c.Type, dominant = Headwind, c.Headwind
	case c.Tailwind > c.Headwind && c.Tailwind > crosswindFactor*c.Crosswind:
		c.Type, dominant = Tailwind, c.Tailwind
	default:
		c.Type, dominant = Crosswind, c.Crosswind
	}

	if windSpeed > 0 {
		c.Strength = math.Min(1, math.Max(0, dominant/windSpeed))
	}
	return c
}

// RelativeAngle returns windFromDeg - trackHeadingDeg folded into
// (-180, 180]. Non-finite input yields 0.
func RelativeAngle(trackHeadingDeg, windFromDeg float64) float64 {
	d := windFromDeg - trackHeadingDeg
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	d = math.Mod(d, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}
