// Package forest implements a random forest classifier: an ensemble of CART
// trees, each grown on a bootstrap resample of the training data with a random
// subset of features considered at every split. Predictions are a majority
// vote across trees.
//
// A fitted Forest is immutable and safe for concurrent Predict calls.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var (
	ErrNoSamples        = errors.New("forest: no training samples")
	ErrLengthMismatch   = errors.New("forest: features and labels differ in length")
	ErrRaggedFeatures   = errors.New("forest: feature rows differ in width")
	ErrInvalidLabel     = errors.New("forest: label must be non-negative")
	ErrInvalidConfig    = errors.New("forest: invalid configuration")
	ErrFeatureWidth     = errors.New("forest: wrong number of features")
	ErrNonFiniteFeature = errors.New("forest: feature is not a finite number")
)

// Config controls how the ensemble is grown.
type Config struct {
	// Trees is the ensemble size.
	Trees int
	// Seed makes training deterministic.
	Seed int64
	// MaxDepth limits tree depth; 0 means unlimited.
	MaxDepth int
	// MinSamplesSplit is the smallest node that may be split.
	MinSamplesSplit int
	// MaxFeatures is the number of features tried per split; 0 means sqrt(width).
	MaxFeatures int
}

// DefaultConfig returns the stock ensemble settings.
func DefaultConfig() Config {
	return Config{
		Trees:           100,
		Seed:            42,
		MinSamplesSplit: 2,
	}
}

func (c Config) validate() error {
	if c.Trees < 1 {
		return fmt.Errorf("%w: trees must be at least 1", ErrInvalidConfig)
	}
	if c.MaxDepth < 0 || c.MaxFeatures < 0 {
		return fmt.Errorf("%w: max depth and max features must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Forest is a fitted ensemble.
type Forest struct {
	trees       []*tree
	numFeatures int
	numClasses  int
	samples     int
}

// Fit trains a forest on features (one row per sample) and integer labels.
// Trees are grown in parallel; each tree draws from its own RNG seeded
// sequentially from cfg.Seed, so the result does not depend on scheduling.
func Fit(ctx context.Context, cfg Config, features [][]float64, labels []int) (*Forest, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, ErrNoSamples
	}
	if len(features) != len(labels) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrLengthMismatch, len(features), len(labels))
	}

	width := len(features[0])
	if width == 0 {
		return nil, fmt.Errorf("%w: rows have no features", ErrRaggedFeatures)
	}
	numClasses := 0
	for i, row := range features {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrRaggedFeatures, i, len(row), width)
		}
		if err := checkFinite(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if labels[i] < 0 {
			return nil, fmt.Errorf("%w: row %d has label %d", ErrInvalidLabel, i, labels[i])
		}
		if labels[i]+1 > numClasses {
			numClasses = labels[i] + 1
		}
	}

	maxFeat := cfg.MaxFeatures
	if maxFeat == 0 {
		maxFeat = int(math.Sqrt(float64(width)))
	}
	if maxFeat < 1 {
		maxFeat = 1
	}
	if maxFeat > width {
		maxFeat = width
	}
	minSplit := cfg.MinSamplesSplit
	if minSplit < 2 {
		minSplit = 2
	}

	master := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, cfg.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]*tree, cfg.Trees)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trees {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))

			n := len(features)
			sample := make([]int, n)
			for j := range sample {
				sample[j] = rng.Intn(n)
			}

			b := &treeBuilder{
				x:          features,
				y:          labels,
				numClasses: numClasses,
				maxDepth:   cfg.MaxDepth,
				minSplit:   minSplit,
				maxFeat:    maxFeat,
				rng:        rng,
			}
			b.build(sample, 0)
			trees[i] = &tree{nodes: b.nodes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Forest{
		trees:       trees,
		numFeatures: width,
		numClasses:  numClasses,
		samples:     len(features),
	}, nil
}

// Predict returns the majority-vote class for one feature row.
// Ties go to the lowest class.
func (f *Forest) Predict(features []float64) (int, error) {
	votes, err := f.Votes(features)
	if err != nil {
		return 0, err
	}
	return majority(votes), nil
}

// Votes returns how many trees voted for each class.
func (f *Forest) Votes(features []float64) ([]int, error) {
	if len(features) != f.numFeatures {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFeatureWidth, len(features), f.numFeatures)
	}
	if err := checkFinite(features); err != nil {
		return nil, err
	}

	votes := make([]int, f.numClasses)
	for _, t := range f.trees {
		votes[t.predict(features)]++
	}
	return votes, nil
}

// Trees returns the ensemble size.
func (f *Forest) Trees() int { return len(f.trees) }

// Classes returns the number of classes seen during training.
func (f *Forest) Classes() int { return f.numClasses }

// Samples returns the number of training rows.
func (f *Forest) Samples() int { return f.samples }

func checkFinite(row []float64) error {
	for i, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: feature %d is %v", ErrNonFiniteFeature, i, v)
		}
	}
	return nil
}
