package ml

import (
	"fmt"
	"math"
)

// LogisticRegression is a multinomial (softmax) linear classifier.
type LogisticRegression struct {
	classes   []int
	coef      [][]float64
	intercept []float64
}

// NewLogisticRegression expects one coefficient row and one intercept per class.
func NewLogisticRegression(classes []int, coef [][]float64, intercept []float64) (*LogisticRegression, error) {
	if len(classes) < 2 {
		return nil, fmt.Errorf("%w: logistic regression needs at least two classes", ErrInvalidModel)
	}
	if len(coef) != len(classes) || len(intercept) != len(classes) {
		return nil, fmt.Errorf("%w: %d classes, %d coefficient rows, %d intercepts",
			ErrInvalidModel, len(classes), len(coef), len(intercept))
	}
	width := len(coef[0])
	if width == 0 {
		return nil, fmt.Errorf("%w: empty coefficient row", ErrInvalidModel)
	}
	for _, row := range coef {
		if len(row) != width {
			return nil, fmt.Errorf("%w: ragged coefficient rows", ErrInvalidModel)
		}
	}
	return &LogisticRegression{classes: classes, coef: coef, intercept: intercept}, nil
}

func (m *LogisticRegression) Name() string     { return "LogisticRegression" }
func (m *LogisticRegression) NumFeatures() int { return len(m.coef[0]) }
func (m *LogisticRegression) Classes() []int   { return m.classes }

func (m *LogisticRegression) PredictProba(x []float64) ([]float64, error) {
	if err := checkDims(m.NumFeatures(), x); err != nil {
		return nil, err
	}
	scores := make([]float64, len(m.classes))
	for k, row := range m.coef {
		s := m.intercept[k]
		for j, w := range row {
			s += w * x[j]
		}
		scores[k] = s
	}
	maxScore := scores[argmax(scores)]
	var sum float64
	for k, s := range scores {
		scores[k] = math.Exp(s - maxScore)
		sum += scores[k]
	}
	for k := range scores {
		scores[k] /= sum
	}
	return scores, nil
}

func (m *LogisticRegression) Predict(x []float64) (int, error) {
	proba, err := m.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return m.classes[argmax(proba)], nil
}

func (m *LogisticRegression) spec() ModelSpec {
	return ModelSpec{
		Type:         KindLogisticRegression,
		Classes:      m.classes,
		NumFeatures:  m.NumFeatures(),
		Coefficients: m.coef,
		Intercepts:   m.intercept,
	}
}
