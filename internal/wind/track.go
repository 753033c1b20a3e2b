package wind

import "math"

// SectionKind tags a track sample.
type SectionKind string

const (
	Straight SectionKind = "straight"
	Corner   SectionKind = "corner"
)

// Position is a map coordinate in the circuit's drawing space.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// TrackSection is one sample of track geometry. Importance only scales
// visual emphasis.
type TrackSection struct {
	Name       string      `json:"name,omitempty" yaml:"name"`
	Position   Position    `json:"position" yaml:"position"`
	Heading    float64     `json:"heading" yaml:"heading"`
	Kind       SectionKind `json:"kind" yaml:"kind"`
	Importance float64     `json:"importance" yaml:"importance"`
}

// SectionImpact pairs a section with its wind components.
type SectionImpact struct {
	Section    TrackSection `json:"section"`
	Components Components   `json:"components"`
}

// DecomposeSection evaluates a single section.
func DecomposeSection(s TrackSection, windFromDeg, windSpeed float64) SectionImpact {
	return SectionImpact{Section: s, Components: Decompose(s.Heading, windFromDeg, windSpeed)}
}

// DecomposeTrack evaluates every section in order.
func DecomposeTrack(sections []TrackSection, windFromDeg, windSpeed float64) []SectionImpact {
	out := make([]SectionImpact, len(sections))
	for i, s := range sections {
		out[i] = DecomposeSection(s, windFromDeg, windSpeed)
	}
	return out
}

// Summary is an importance-weighted breakdown of a track's impacts, used
// for the map legend. Shares sum to 1 unless the track has no weight.
type Summary struct {
	HeadwindShare  float64       `json:"headwindShare"`
	TailwindShare  float64       `json:"tailwindShare"`
	CrosswindShare float64       `json:"crosswindShare"`
	Dominant       ComponentType `json:"dominant"`
	MaxCrosswind   float64       `json:"maxCrosswind"`
	MaxCrosswindAt string        `json:"maxCrosswindAt,omitempty"`
}

// Summarize weights each impact by its section importance. Sections with
// non-positive importance count with weight 1 so an unweighted track still
// summarizes.
func Summarize(impacts []SectionImpact) Summary {
	var sum Summary
	var head, tail, cross, total float64
	for _, im := range impacts {
		w := im.Section.Importance
		if w <= 0 || math.IsNaN(w) {
			w = 1
		}
		total += w
		switch im.Components.Type {
		case Headwind:
			head += w
		case Tailwind:
			tail += w
		default:
			cross += w
		}
		if im.Components.Crosswind > sum.MaxCrosswind {
			sum.MaxCrosswind = im.Components.Crosswind
			sum.MaxCrosswindAt = im.Section.Name
		}
	}
	if total == 0 {
		sum.Dominant = Crosswind
		return sum
	}

	sum.HeadwindShare = head / total
	sum.TailwindShare = tail / total
	sum.CrosswindShare = cross / total
	switch {
	case head >= tail && head >= cross:
		sum.Dominant = Headwind
	case tail >= cross:
		sum.Dominant = Tailwind
	default:
		sum.Dominant = Crosswind
	}
	return sum
}
