// Package circuit holds the registered circuits and their track geometry.
package circuit

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/i474232898/circuit-weather/internal/weather"
	"github.com/i474232898/circuit-weather/internal/wind"
)

//go:embed circuits.yaml
var defaultCircuits []byte

// ErrNotFound is returned for an unknown slug.
var ErrNotFound = errors.New("circuit not found")

// Circuit is a track with its location and ordered geometry samples.
type Circuit struct {
	Slug      string              `json:"slug" yaml:"slug"`
	Name      string              `json:"name" yaml:"name"`
	Category  string              `json:"category" yaml:"category"`
	Latitude  float64             `json:"latitude" yaml:"latitude"`
	Longitude float64             `json:"longitude" yaml:"longitude"`
	Sections  []wind.TrackSection `json:"sections" yaml:"sections"`
}

// Target returns the durable cache identity and coordinates of c.
func (c Circuit) Target() weather.Target {
	return weather.Target{
		Slug:      c.Slug,
		Category:  c.Category,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
	}
}

// Registry is a read-only set of circuits keyed by slug.
type Registry struct {
	bySlug map[string]Circuit
	order  []string
}

type file struct {
	Circuits []Circuit `yaml:"circuits"`
}

// Default returns the embedded registry.
func Default() (*Registry, error) {
	return Parse(defaultCircuits)
}

// Load reads a registry from a YAML file, or the embedded one when path
// is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read circuits file %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse circuits file %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes and validates YAML. Headings are normalized to [0, 360) and
// importance is clamped to [0, 1].
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	r := &Registry{bySlug: make(map[string]Circuit, len(f.Circuits))}
	for i, c := range f.Circuits {
		c.Slug = strings.TrimSpace(c.Slug)
		if c.Slug == "" {
			return nil, fmt.Errorf("circuit %d: slug is required", i)
		}
		if strings.Contains(c.Slug, "_") {
			return nil, fmt.Errorf("circuit %s: slug must not contain '_'", c.Slug)
		}
		if _, dup := r.bySlug[c.Slug]; dup {
			return nil, fmt.Errorf("circuit %s: duplicate slug", c.Slug)
		}
		if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
			return nil, fmt.Errorf("circuit %s: coordinates out of range", c.Slug)
		}
		if c.Category == "" {
			c.Category = "general"
		}
		if strings.Contains(c.Category, "_") {
			return nil, fmt.Errorf("circuit %s: category must not contain '_'", c.Slug)
		}

		sections := make([]wind.TrackSection, len(c.Sections))
		for j, s := range c.Sections {
			s.Heading = weather.NormalizeDirection(s.Heading)
			s.Importance = weather.SanitizeFloat(s.Importance, 0, 0, 1)
			switch s.Kind {
			case wind.Straight, wind.Corner:
			case "":
				s.Kind = wind.Straight
			default:
				return nil, fmt.Errorf("circuit %s section %d: unknown kind %q", c.Slug, j, s.Kind)
			}
			sections[j] = s
		}
		c.Sections = sections

		r.bySlug[c.Slug] = c
		r.order = append(r.order, c.Slug)
	}
	sort.Strings(r.order)
	return r, nil
}

// Get looks up a circuit by slug.
func (r *Registry) Get(slug string) (Circuit, error) {
	c, ok := r.bySlug[slug]
	if !ok {
		return Circuit{}, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	return c, nil
}

// List returns circuits sorted by slug.
func (r *Registry) List() []Circuit {
	out := make([]Circuit, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.bySlug[slug])
	}
	return out
}
