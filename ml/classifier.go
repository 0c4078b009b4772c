// Package ml holds the in-process plant-health classifiers, their feature
// scalers and the versioned artifact format they are loaded from.
package ml

import (
	"errors"
	"fmt"
)

var (
	ErrModelNotFound      = errors.New("model artifact not found")
	ErrUnsupportedVersion = errors.New("unsupported artifact format version")
	ErrUnknownKind        = errors.New("unknown artifact kind")
	ErrDimensionMismatch  = errors.New("feature dimension mismatch")
	ErrInvalidModel       = errors.New("invalid model definition")
)

// Classifier predicts a class label for one feature row.
type Classifier interface {
	Name() string
	NumFeatures() int
	Classes() []int
	Predict(x []float64) (int, error)
}

// ProbabilityEstimator is implemented by classifiers that can report class
// probabilities. The returned slice is aligned with Classes().
type ProbabilityEstimator interface {
	PredictProba(x []float64) ([]float64, error)
}

// Scaler rescales a feature row before prediction.
type Scaler interface {
	Name() string
	Transform(x []float64) ([]float64, error)
}

func checkDims(want int, x []float64) error {
	if len(x) != want {
		return fmt.Errorf("%w: expected %d features, got %d", ErrDimensionMismatch, want, len(x))
	}
	return nil
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
