package weather

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical request date format.
const DateLayout = "2006-01-02"

// dateParseLayout also accepts unpadded month and day, e.g. 2012-1-1.
const dateParseLayout = "2006-1-2"

// Classifier maps a feature row onto a label code.
type Classifier interface {
	Predict(features []float64) (int, error)
}

// NumericInput holds a request field that may arrive as a JSON number or as a
// string containing one. It is coerced to float64 at prediction time.
type NumericInput string

// UnmarshalJSON accepts numbers, strings and null.
func (n *NumericInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NumericInput(s)
		return nil
	}
	*n = NumericInput(b)
	return nil
}

// Number builds a NumericInput from a float.
func Number(v float64) NumericInput {
	return NumericInput(strconv.FormatFloat(v, 'g', -1, 64))
}

// Float coerces the input, reporting failures against field.
func (n NumericInput) Float(field string) (float64, error) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return 0, &FeatureParseError{Field: field}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &FeatureParseError{Field: field, Value: string(n), Err: err}
	}
	return v, nil
}

// PredictionRequest is the input to Service.Predict.
type PredictionRequest struct {
	Date          string       `json:"date" validate:"required"`
	Precipitation NumericInput `json:"precipitation" validate:"required"`
	TempMax       NumericInput `json:"temp_max" validate:"required"`
	TempMin       NumericInput `json:"temp_min" validate:"required"`
	Wind          NumericInput `json:"wind" validate:"required"`
}

// Status is the outcome of a prediction.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// PredictionResult carries either a prediction or an error message.
type PredictionResult struct {
	Status     Status   `json:"status"`
	Prediction Category `json:"prediction,omitempty"`
	Details    string   `json:"details,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// ErrorResult wraps a diagnostic message in a failed result.
func ErrorResult(message string) PredictionResult {
	return PredictionResult{Status: StatusError, Message: message}
}

// Service turns prediction requests into categories using a fitted classifier
// and label codec. It never mutates either, so one Service may serve any
// number of concurrent requests.
type Service struct {
	model Classifier
	codec *LabelCodec
}

// NewService creates a new Service.
func NewService(model Classifier, codec *LabelCodec) *Service {
	return &Service{
		model: model,
		codec: codec,
	}
}

// Predict classifies the request. Failures are reported in the result rather
// than returned.
func (s *Service) Predict(req PredictionRequest) PredictionResult {
	category, err := s.predict(req)
	if err != nil {
		log.Printf("DEBUG: prediction failed for date %q: %v", req.Date, err)
		return ErrorResult(err.Error())
	}
	return PredictionResult{
		Status:     StatusSuccess,
		Prediction: category,
		Details:    Details(category),
	}
}

func (s *Service) predict(req PredictionRequest) (Category, error) {
	date, err := ParseDate(req.Date)
	if err != nil {
		return "", err
	}

	precipitation, err := req.Precipitation.Float("precipitation")
	if err != nil {
		return "", err
	}
	tempMax, err := req.TempMax.Float("temp_max")
	if err != nil {
		return "", err
	}
	tempMin, err := req.TempMin.Float("temp_min")
	if err != nil {
		return "", err
	}
	wind, err := req.Wind.Float("wind")
	if err != nil {
		return "", err
	}

	features := NewFeatureVector(date, precipitation, tempMax, tempMin, wind)
	code, err := s.model.Predict(features.Slice())
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	return s.codec.Decode(code)
}

// Categories returns the categories the model can produce, in code order.
func (s *Service) Categories() []Category {
	return s.codec.Categories()
}

// ParseDate parses a YYYY-MM-DD date. Month and day may omit the leading zero.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &DateParseError{}
	}
	t, err := time.Parse(dateParseLayout, s)
	if err != nil {
		return time.Time{}, &DateParseError{Value: s, Err: err}
	}
	return t, nil
}
