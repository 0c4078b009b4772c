package ml

import (
	"fmt"
	"math"
)

// StandardScaler centers each feature and divides by its scale.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func (s *StandardScaler) Name() string { return "StandardScaler" }

func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if err := checkDims(len(s.Mean), x); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}

func (s *StandardScaler) spec() ScalerSpec {
	return ScalerSpec{Type: KindStandardScaler, Mean: s.Mean, Scale: s.Scale}
}

// FitStandardScaler computes per-feature mean and population standard deviation.
func FitStandardScaler(X [][]float64) *StandardScaler {
	if len(X) == 0 {
		return &StandardScaler{}
	}
	n := len(X[0])
	mean := make([]float64, n)
	scale := make([]float64, n)
	for _, row := range X {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(len(X))
	}
	for _, row := range X {
		for j, v := range row {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / float64(len(X)))
	}
	return &StandardScaler{Mean: mean, Scale: scale}
}

// MinMaxScaler maps [DataMin, DataMax] onto [0, 1].
type MinMaxScaler struct {
	DataMin []float64
	DataMax []float64
}

func (s *MinMaxScaler) Name() string { return "MinMaxScaler" }

func (s *MinMaxScaler) Transform(x []float64) ([]float64, error) {
	if err := checkDims(len(s.DataMin), x); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		span := s.DataMax[i] - s.DataMin[i]
		if span == 0 {
			span = 1
		}
		out[i] = (v - s.DataMin[i]) / span
	}
	return out, nil
}

func (s *MinMaxScaler) spec() ScalerSpec {
	return ScalerSpec{Type: KindMinMaxScaler, DataMin: s.DataMin, DataMax: s.DataMax}
}

func newScaler(spec *ScalerSpec) (Scaler, error) {
	switch spec.Type {
	case KindStandardScaler:
		if len(spec.Mean) == 0 || len(spec.Mean) != len(spec.Scale) {
			return nil, fmt.Errorf("%w: standard scaler has %d means and %d scales", ErrInvalidModel, len(spec.Mean), len(spec.Scale))
		}
		return &StandardScaler{Mean: spec.Mean, Scale: spec.Scale}, nil
	case KindMinMaxScaler:
		if len(spec.DataMin) == 0 || len(spec.DataMin) != len(spec.DataMax) {
			return nil, fmt.Errorf("%w: minmax scaler has %d minimums and %d maximums", ErrInvalidModel, len(spec.DataMin), len(spec.DataMax))
		}
		return &MinMaxScaler{DataMin: spec.DataMin, DataMax: spec.DataMax}, nil
	default:
		return nil, fmt.Errorf("%w: scaler type %q", ErrUnknownKind, spec.Type)
	}
}
