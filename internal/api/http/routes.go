package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/circuit-weather/internal/circuit"
	"github.com/i474232898/circuit-weather/internal/weather"
	"github.com/i474232898/circuit-weather/internal/wind"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, registry *circuit.Registry) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		q, err := parseCoordinateQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		res, err := service.GetWeather(c.UserContext(), *q.Lat, *q.Lon, q.unit)
		if err != nil {
			return weatherError(c, err)
		}
		return c.JSON(res)
	})

	v1.Get("/circuits", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"circuits": registry.List()})
	})

	v1.Get("/circuits/:slug/weather", func(c *fiber.Ctx) error {
		ct, err := registry.Get(c.Params("slug"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		unit, err := parseUnit(c.Query("unit"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res, err := service.GetCircuitWeather(c.UserContext(), ct.Target(), unit)
		if err != nil {
			return weatherError(c, err)
		}
		return c.JSON(res)
	})

	v1.Get("/circuits/:slug/wind", func(c *fiber.Ctx) error {
		ct, err := registry.Get(c.Params("slug"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		q, err := parseWindQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		resp := windResponse{Circuit: ct.Slug, Unit: q.unit, SpeedUnit: weather.SpeedUnit(q.unit)}
		if q.From == nil || q.Speed == nil {
			res, err := service.GetCircuitWeather(c.UserContext(), ct.Target(), q.unit)
			if err != nil {
				return weatherError(c, err)
			}
			resp.From, resp.Speed = res.Snapshot.WindDirection, res.Snapshot.WindSpeed
			resp.Timestamp = res.Timestamp.Format(time.RFC3339)
			resp.IsOffline, resp.IsStale = res.IsOffline, res.IsStale
		}
		if q.From != nil {
			resp.From = weather.NormalizeDirection(*q.From)
		}
		if q.Speed != nil {
			resp.Speed = *q.Speed
		}

		resp.Sections = wind.DecomposeTrack(ct.Sections, resp.From, resp.Speed)
		resp.Summary = wind.Summarize(resp.Sections)
		return c.JSON(resp)
	})

	v1.Get("/cache/stats", func(c *fiber.Ctx) error {
		return c.JSON(service.CacheStats(c.UserContext()))
	})

	v1.Delete("/cache", func(c *fiber.Ctx) error {
		service.ClearAllCache(c.UserContext())
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/cache/cleanup", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"removed": service.ClearOldCache(c.UserContext())})
	})
}

type windResponse struct {
	Circuit   string               `json:"circuit"`
	Unit      weather.Unit         `json:"unit"`
	SpeedUnit string               `json:"speedUnit"`
	From      float64              `json:"windFrom"`
	Speed     float64              `json:"windSpeed"`
	Timestamp string               `json:"timestamp,omitempty"`
	IsOffline bool                 `json:"isOffline"`
	IsStale   bool                 `json:"isStale"`
	Sections  []wind.SectionImpact `json:"sections"`
	Summary   wind.Summary         `json:"summary"`
}

// weatherError maps service errors onto responses. Transport failures get
// a fixed body so clients can switch on it.
func weatherError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, weather.ErrFetchFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "fetch_failed"})
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, "weather request timed out")
	case errors.Is(err, context.Canceled):
		return fiber.NewError(fiber.StatusServiceUnavailable, "request cancelled")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
	}
}

// ErrorHandler renders errors as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// coordinateQuery holds query parameters for the coordinate endpoint.
type coordinateQuery struct {
	Lat  *float64 `validate:"required,gte=-90,lte=90"`
	Lon  *float64 `validate:"required,gte=-180,lte=180"`
	Unit string   `validate:"omitempty,oneof=metric imperial"`

	unit weather.Unit
}

func parseCoordinateQuery(c *fiber.Ctx) (coordinateQuery, error) {
	var q coordinateQuery
	var err error

	if q.Lat, err = parseOptionalFloat("lat", c.Query("lat")); err != nil {
		return q, err
	}
	if q.Lon, err = parseOptionalFloat("lon", c.Query("lon")); err != nil {
		return q, err
	}
	q.Unit = strings.ToLower(strings.TrimSpace(c.Query("unit")))

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	q.unit, err = weather.ParseUnit(q.Unit)
	return q, err
}

// windQuery holds the optional wind override for the wind endpoint.
type windQuery struct {
	From  *float64
	Speed *float64 `validate:"omitempty,gte=0"`
	Unit  string   `validate:"omitempty,oneof=metric imperial"`

	unit weather.Unit
}

func parseWindQuery(c *fiber.Ctx) (windQuery, error) {
	var q windQuery
	var err error

	if q.From, err = parseOptionalFloat("from", c.Query("from")); err != nil {
		return q, err
	}
	if q.Speed, err = parseOptionalFloat("speed", c.Query("speed")); err != nil {
		return q, err
	}
	q.Unit = strings.ToLower(strings.TrimSpace(c.Query("unit")))

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	q.unit, err = weather.ParseUnit(q.Unit)
	return q, err
}

func parseUnit(s string) (weather.Unit, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if err := validate.Var(s, "omitempty,oneof=metric imperial"); err != nil {
		return "", weather.ErrInvalidUnit
	}
	return weather.ParseUnit(s)
}

func parseOptionalFloat(name, s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.New(name + " must be a number")
	}
	return &f, nil
}
