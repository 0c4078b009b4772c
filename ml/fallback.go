package ml

import (
	"math/rand"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
)

const (
	fallbackSeed    = 42
	fallbackSamples = 100
	fallbackClasses = 6
	fallbackTrees   = 50
)

// FallbackSource marks bundles built by NewFallbackBundle.
const FallbackSource = "fallback"

// NewFallbackBundle trains a placeholder forest on seeded random data so the
// service can answer requests without a trained artifact. Its predictions
// carry no meaning.
func NewFallbackBundle() *Bundle {
	names := models.DefaultFeatureNames()
	rng := rand.New(rand.NewSource(fallbackSeed))

	X := make([][]float64, fallbackSamples)
	y := make([]int, fallbackSamples)
	for i := range X {
		X[i] = make([]float64, len(names))
		for j := range X[i] {
			X[i][j] = rng.Float64() * 100
		}
		y[i] = rng.Intn(fallbackClasses)
	}

	scaler := FitStandardScaler(X)
	scaled := make([][]float64, len(X))
	for i, row := range X {
		scaled[i], _ = scaler.Transform(row)
	}

	forest, err := FitRandomForest(scaled, y, ForestOptions{Trees: fallbackTrees, Seed: fallbackSeed})
	if err != nil {
		// inputs are generated above and always well-formed
		panic(err)
	}
	return &Bundle{
		Model:        forest,
		Scaler:       scaler,
		FeatureNames: names,
		Source:       FallbackSource,
		Fallback:     true,
	}
}
