package httpapi

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-predictor/internal/sensor"
	"github.com/i474232898/weather-predictor/internal/store"
	"github.com/i474232898/weather-predictor/internal/weather"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Predictor classifies prediction requests.
type Predictor interface {
	Predict(req weather.PredictionRequest) weather.PredictionResult
	Categories() []weather.Category
}

// Thermometer serves the latest temperature.
type Thermometer interface {
	LatestTemperature() (float64, sensor.Source)
}

// History serves sampled sensor readings.
type History interface {
	GetLatest() (sensor.Reading, error)
	GetRange(from, to time.Time) ([]sensor.Reading, error)
}

// ModelInfo describes the trained model for health reporting.
type ModelInfo interface {
	Trees() int
	Samples() int
	Classes() []weather.Category
}

// SensorStatus describes the sensor connection for health reporting.
type SensorStatus interface {
	Active() bool
	Device() string
	CircuitState() string
}

// ErrorHandler renders transport-level errors as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterHealth adds the readiness endpoint. The status is "ok" once the
// model is trained, whatever the sensor is doing.
func RegisterHealth(app *fiber.App, service string, model ModelInfo, dev SensorStatus, sensorEnabled bool) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": service,
			"model": fiber.Map{
				"trees":   model.Trees(),
				"classes": model.Classes(),
				"samples": model.Samples(),
			},
			"sensor": fiber.Map{
				"enabled": sensorEnabled,
				"active":  dev.Active(),
				"device":  dev.Device(),
				"circuit": dev.CircuitState(),
			},
		})
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, predictor Predictor, thermometer Thermometer, history History) {
	// Prediction failures are reported in the body with a 200.
	app.Post("/predict", func(c *fiber.Ctx) error {
		var req weather.PredictionRequest
		if err := c.BodyParser(&req); err != nil {
			return c.JSON(weather.ErrorResult("invalid request body: " + err.Error()))
		}
		if err := validate.Struct(req); err != nil {
			return c.JSON(weather.ErrorResult(validationMessage(err)))
		}
		return c.JSON(predictor.Predict(req))
	})

	app.Get("/get_temp", func(c *fiber.Ctx) error {
		temp, source := thermometer.LatestTemperature()
		return c.JSON(fiber.Map{
			"temp":   temp,
			"source": source,
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/categories", func(c *fiber.Ctx) error {
		cats := predictor.Categories()
		out := make([]categoryView, 0, len(cats))
		for code, cat := range cats {
			out = append(out, categoryView{Code: code, Name: cat, Details: weather.Details(cat)})
		}
		return c.JSON(fiber.Map{"categories": out})
	})

	v1.Get("/temp/latest", func(c *fiber.Ctx) error {
		r, err := history.GetLatest()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no sensor readings recorded yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch sensor reading")
		}
		return c.JSON(r)
	})

	v1.Get("/temp/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
		}

		readings, err := history.GetRange(req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no sensor readings for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch sensor history")
		}

		return c.JSON(fiber.Map{
			"from":     req.From,
			"to":       req.To,
			"readings": readings,
		})
	})
}

type categoryView struct {
	Code    int              `json:"code"`
	Name    weather.Category `json:"name"`
	Details string           `json:"details"`
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `json:"from" validate:"required"`
	To   time.Time `json:"to" validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

// validationMessage flattens validator errors into "field is required"
// style text.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "gtefield":
			msgs = append(msgs, fmt.Sprintf("%s must not be before %s", fe.Field(), strings.ToLower(fe.Param())))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
