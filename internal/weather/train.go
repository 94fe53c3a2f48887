package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/i474232898/weather-predictor/internal/forest"
)

// ErrNoRecords is returned when training is attempted on an empty dataset.
var ErrNoRecords = errors.New("no weather records to train on")

// TrainingSet is the encoded form of a historical dataset.
type TrainingSet struct {
	Codec    *LabelCodec
	Features [][]float64
	Labels   []int
}

// BuildTrainingSet fits a label codec over the records' categories and
// encodes every record into a feature row and label code.
func BuildTrainingSet(records []WeatherRecord) (TrainingSet, error) {
	if len(records) == 0 {
		return TrainingSet{}, ErrNoRecords
	}

	categories := make([]Category, len(records))
	for i, r := range records {
		categories[i] = r.Weather
	}
	codec, err := FitLabelCodec(categories)
	if err != nil {
		return TrainingSet{}, err
	}

	features := make([][]float64, len(records))
	labels := make([]int, len(records))
	for i, r := range records {
		code, err := codec.Encode(r.Weather)
		if err != nil {
			return TrainingSet{}, err
		}
		features[i] = r.Features().Slice()
		labels[i] = code
	}

	return TrainingSet{Codec: codec, Features: features, Labels: labels}, nil
}

// Model bundles the fitted forest with the codec it was trained against.
type Model struct {
	Forest *forest.Forest
	Codec  *LabelCodec
}

// Train encodes the records and fits a forest over them. It blocks until
// every tree is built.
func Train(ctx context.Context, records []WeatherRecord, cfg forest.Config) (*Model, error) {
	set, err := BuildTrainingSet(records)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	f, err := forest.Fit(ctx, cfg, set.Features, set.Labels)
	if err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}
	log.Printf("INFO: trained %d trees on %d records (%d categories) in %s",
		f.Trees(), f.Samples(), set.Codec.Len(), time.Since(start).Round(time.Millisecond))

	return &Model{Forest: f, Codec: set.Codec}, nil
}

// Service returns a prediction service backed by the model.
func (m *Model) Service() *Service {
	return NewService(m.Forest, m.Codec)
}

// Trees reports the ensemble size.
func (m *Model) Trees() int { return m.Forest.Trees() }

// Samples reports how many records the model was trained on.
func (m *Model) Samples() int { return m.Forest.Samples() }

// Classes returns the categories the model can predict, in code order.
func (m *Model) Classes() []Category { return m.Codec.Categories() }
