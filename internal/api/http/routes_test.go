package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-predictor/internal/dataset"
	"github.com/i474232898/weather-predictor/internal/forest"
	"github.com/i474232898/weather-predictor/internal/sensor"
	"github.com/i474232898/weather-predictor/internal/store"
	"github.com/i474232898/weather-predictor/internal/weather"
)

type stubThermometer struct {
	temp   float64
	source sensor.Source
}

func (s stubThermometer) LatestTemperature() (float64, sensor.Source) {
	return s.temp, s.source
}

func trainedModel(t *testing.T) *weather.Model {
	t.Helper()
	records, err := dataset.Load("../../dataset/testdata/seattle-weather.csv")
	require.NoError(t, err)

	cfg := forest.DefaultConfig()
	cfg.Trees = 20
	model, err := weather.Train(context.Background(), records, cfg)
	require.NoError(t, err)
	return model
}

func trainedService(t *testing.T) *weather.Service {
	t.Helper()
	return trainedModel(t).Service()
}

func newTestApp(t *testing.T, thermo Thermometer, history History) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, trainedService(t), thermo, history)
	return app
}

func doJSON(t *testing.T, app *fiber.App, req *http.Request, out any) int {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
	return resp.StatusCode
}

func postPredict(t *testing.T, app *fiber.App, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	var out map[string]any
	code := doJSON(t, app, req, &out)
	return code, out
}

func TestPredictEndpoint(t *testing.T) {
	app := newTestApp(t, stubThermometer{}, store.NewMemoryStore(10, 0))

	code, out := postPredict(t, app,
		`{"date":"2012-01-01","precipitation":0.0,"temp_max":12.8,"temp_min":5.0,"wind":4.7}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "success", out["status"], out["message"])

	pred, _ := out["prediction"].(string)
	assert.Contains(t, []string{"rain", "sun", "drizzle", "snow", "fog"}, pred)
	assert.Equal(t, weather.Details(weather.Category(pred)), out["details"])
	assert.NotContains(t, out, "message")
}

func TestPredictEndpointAcceptsStrings(t *testing.T) {
	app := newTestApp(t, stubThermometer{}, store.NewMemoryStore(10, 0))

	code, out := postPredict(t, app,
		`{"date":"2015-07-04","precipitation":"0","temp_max":"31.1","temp_min":"16.1","wind":"3.4"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", out["status"], out["message"])
}

func TestPredictEndpointErrorsInBody(t *testing.T) {
	app := newTestApp(t, stubThermometer{}, store.NewMemoryStore(10, 0))

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			name:    "bad month",
			body:    `{"date":"2024-13-99","precipitation":0,"temp_max":1,"temp_min":0,"wind":1}`,
			message: "invalid date",
		},
		{
			name:    "not a date",
			body:    `{"date":"not-a-date","precipitation":0,"temp_max":1,"temp_min":0,"wind":1}`,
			message: "invalid date",
		},
		{
			name:    "non numeric",
			body:    `{"date":"2012-01-01","precipitation":"abc","temp_max":1,"temp_min":0,"wind":1}`,
			message: "precipitation",
		},
		{
			name:    "missing field",
			body:    `{"date":"2012-01-01","precipitation":0,"temp_max":1,"temp_min":0}`,
			message: "wind is required",
		},
		{
			name:    "malformed json",
			body:    `{"date":`,
			message: "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := postPredict(t, app, tt.body)
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "error", out["status"])
			assert.Contains(t, out["message"], tt.message)
			assert.NotContains(t, out, "prediction")
		})
	}
}

func TestGetTemp(t *testing.T) {
	for _, tc := range []stubThermometer{
		{temp: sensor.DefaultTemperature, source: sensor.SourceDefault},
		{temp: 71.3, source: sensor.SourceSensor},
	} {
		app := newTestApp(t, tc, store.NewMemoryStore(10, 0))

		var out struct {
			Temp   float64 `json:"temp"`
			Source string  `json:"source"`
		}
		code := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/get_temp", nil), &out)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, tc.temp, out.Temp)
		assert.Equal(t, string(tc.source), out.Source)
	}
}

func TestCategories(t *testing.T) {
	app := newTestApp(t, stubThermometer{}, store.NewMemoryStore(10, 0))

	var out struct {
		Categories []categoryView `json:"categories"`
	}
	code := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil), &out)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, out.Categories, len(weather.Categories))
	for i, c := range out.Categories {
		assert.Equal(t, i, c.Code)
		assert.Equal(t, weather.Categories[i], c.Name)
		assert.Equal(t, weather.Details(c.Name), c.Details)
	}
}

func TestTemperatureHistory(t *testing.T) {
	mem := store.NewMemoryStore(0, 0)
	app := newTestApp(t, stubThermometer{}, mem)

	code := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/temp/latest", nil), nil)
	assert.Equal(t, http.StatusNotFound, code)

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		mem.SaveReading(sensor.Reading{
			ID:          string(rune('a' + i)),
			Temperature: 70 + float64(i),
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		})
	}

	var latest sensor.Reading
	code = doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/temp/latest", nil), &latest)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "c", latest.ID)

	from := base.Format(time.RFC3339)
	to := base.Add(90 * time.Second).Format(time.RFC3339)
	var out struct {
		Readings []sensor.Reading `json:"readings"`
	}
	code = doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/temp/history?from="+from+"&to="+to, nil), &out)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out.Readings, 2)

	// Unix seconds work too.
	unixFrom := base.Add(-time.Hour).Unix()
	unixTo := base.Add(time.Hour).Unix()
	code = doJSON(t, app, httptest.NewRequest(http.MethodGet,
		"/api/v1/temp/history?from="+itoa(unixFrom)+"&to="+itoa(unixTo), nil), &out)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out.Readings, 3)
}

func TestTemperatureHistoryValidation(t *testing.T) {
	app := newTestApp(t, stubThermometer{}, store.NewMemoryStore(0, 0))

	var errBody struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}

	code := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/temp/history", nil), &errBody)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.True(t, errBody.Error)

	code = doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/temp/history?from=yesterday&to=today", nil), &errBody)
	assert.Equal(t, http.StatusBadRequest, code)

	code = doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/temp/history?from=2000&to=1000", nil), &errBody)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, errBody.Message, "to must not be before from")

	code = doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/temp/history?from=1000&to=2000", nil), &errBody)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealthReadyWithoutSensor(t *testing.T) {
	model := trainedModel(t)
	open := func() (io.ReadCloser, error) { return nil, errors.New("no device") }
	poller := sensor.NewPoller(sensor.Config{Device: "/dev/ttyTEST", DefaultTemp: sensor.DefaultTemperature}, open, nil)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterHealth(app, "weather-predictor", model, poller, true)

	var out struct {
		Status  string `json:"status"`
		Service string `json:"service"`
		Model   struct {
			Trees   int                `json:"trees"`
			Classes []weather.Category `json:"classes"`
			Samples int                `json:"samples"`
		} `json:"model"`
		Sensor struct {
			Enabled bool   `json:"enabled"`
			Active  bool   `json:"active"`
			Device  string `json:"device"`
			Circuit string `json:"circuit"`
		} `json:"sensor"`
	}
	code := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/health", nil), &out)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, "weather-predictor", out.Service)
	assert.Equal(t, 20, out.Model.Trees)
	assert.Equal(t, model.Samples(), out.Model.Samples)
	assert.Positive(t, out.Model.Samples)
	assert.Equal(t, weather.Categories, out.Model.Classes)

	assert.True(t, out.Sensor.Enabled)
	assert.False(t, out.Sensor.Active)
	assert.Equal(t, "/dev/ttyTEST", out.Sensor.Device)
	assert.Equal(t, "closed", out.Sensor.Circuit)
}

func TestHealthKeys(t *testing.T) {
	poller := sensor.NewPoller(sensor.Config{Device: "/dev/ttyTEST"}, nil, nil)
	app := fiber.New()
	RegisterHealth(app, "weather-predictor", trainedModel(t), poller, false)

	var out struct {
		Status string         `json:"status"`
		Model  map[string]any `json:"model"`
		Sensor map[string]any `json:"sensor"`
	}
	code := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/health", nil), &out)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, "ok", out.Status)
	assert.ElementsMatch(t, []string{"trees", "classes", "samples"}, keys(out.Model))
	assert.ElementsMatch(t, []string{"enabled", "active", "device", "circuit"}, keys(out.Sensor))
	assert.Equal(t, false, out.Sensor["enabled"])
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
