package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
)

// Bundle is the model, optional scaler and feature order used for predictions.
// It is built once at start-up and never mutated afterwards.
type Bundle struct {
	Model        Classifier
	Scaler       Scaler
	FeatureNames []string
	Source       string
	Fallback     bool
}

// HasProbabilities reports whether the model can produce class probabilities.
func (b *Bundle) HasProbabilities() bool {
	_, ok := b.Model.(ProbabilityEstimator)
	return ok
}

// ScalerName is empty when no scaler is loaded.
func (b *Bundle) ScalerName() string {
	if b.Scaler == nil {
		return ""
	}
	return b.Scaler.Name()
}

// Load reads the model bundle at modelPath. A scaler found at scalerPath takes
// priority over one embedded in the bundle; a broken scaler file is logged and
// ignored. The loaded model must pass a prediction on the default sample.
func Load(modelPath, scalerPath string, log *logrus.Entry) (*Bundle, error) {
	var scaler Scaler
	if scalerPath != "" {
		if _, err := os.Stat(scalerPath); err == nil {
			s, err := readScalerFile(scalerPath)
			if err != nil {
				log.WithError(err).Warn("ignoring scaler file")
			} else {
				scaler = s
				log.WithField("scaler_type", s.Name()).Infof("loaded scaler from %s", scalerPath)
			}
		} else {
			log.Infof("%s not found", scalerPath)
		}
	}

	f, err := readBundleFile(modelPath)
	if err != nil {
		return nil, err
	}
	model, err := newClassifier(f.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to build model from %s: %w", modelPath, err)
	}
	log.WithField("model_type", model.Name()).Infof("loaded model from %s", modelPath)

	if scaler == nil && f.Scaler != nil {
		s, err := newScaler(f.Scaler)
		if err != nil {
			log.WithError(err).Warn("ignoring scaler embedded in model bundle")
		} else {
			scaler = s
			log.WithField("scaler_type", s.Name()).Info("using scaler embedded in model bundle")
		}
	}
	if scaler == nil {
		log.Warn("no scaler loaded, predictions will use raw features")
	}

	names := f.FeatureNames
	if len(names) == 0 {
		names = models.DefaultFeatureNames()
	}
	if len(names) != model.NumFeatures() {
		return nil, fmt.Errorf("%w: %d feature names for a model with %d features",
			ErrDimensionMismatch, len(names), model.NumFeatures())
	}

	b := &Bundle{Model: model, Scaler: scaler, FeatureNames: names, Source: modelPath}
	if err := b.selfTest(log); err != nil {
		return nil, fmt.Errorf("model self-test failed: %w", err)
	}
	return b, nil
}

// LoadOrFallback returns the bundle at modelPath, or the fallback bundle if it
// cannot be loaded for any reason.
func LoadOrFallback(modelPath, scalerPath string, log *logrus.Entry) *Bundle {
	b, err := Load(modelPath, scalerPath, log)
	if err == nil {
		return b
	}
	if errors.Is(err, ErrModelNotFound) {
		log.Warnf("%s not found", modelPath)
	} else {
		log.WithError(err).Error("failed to load a valid model")
	}
	log.Warn("falling back to a randomly trained model; predictions are not meaningful")
	return NewFallbackBundle()
}

// Row orders features by the bundle's feature names. Names missing from
// features take their documented default, or 0 when there is none.
func (b *Bundle) Row(features map[string]float64) []float64 {
	row := make([]float64, len(b.FeatureNames))
	for i, name := range b.FeatureNames {
		if v, ok := features[name]; ok {
			row[i] = v
		} else {
			row[i] = models.FeatureDefaults[name]
		}
	}
	return row
}

func (b *Bundle) selfTest(log *logrus.Entry) error {
	x := b.Row(models.FeatureDefaults)
	if b.Scaler != nil {
		scaled, err := b.Scaler.Transform(x)
		if err != nil {
			log.WithError(err).Warn("self-test scaling failed, using raw sample")
		} else {
			x = scaled
		}
	}
	class, err := b.Model.Predict(x)
	if err != nil {
		return err
	}
	entry := log.WithField("class", class)
	if pe, ok := b.Model.(ProbabilityEstimator); ok {
		proba, err := pe.PredictProba(x)
		if err != nil {
			return err
		}
		entry = entry.WithField("confidence", proba[argmax(proba)])
	}
	entry.Info("model self-test passed")
	return nil
}

// ArtifactInfo describes one artifact file found in the model directory.
type ArtifactInfo struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Error string `json:"error,omitempty"`
}

// Inspect lists the JSON artifacts in dir and what each one contains.
func Inspect(dir string) ([]ArtifactInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list model directory: %w", err)
	}
	var out []ArtifactInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		out = append(out, inspectFile(filepath.Join(dir, e.Name())))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func inspectFile(path string) ArtifactInfo {
	info := ArtifactInfo{Name: filepath.Base(path), Kind: "unknown"}
	data, err := os.ReadFile(path)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	var header struct {
		FormatVersion int             `json:"format_version"`
		Model         json.RawMessage `json:"model"`
		Scaler        json.RawMessage `json:"scaler"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		info.Error = err.Error()
		return info
	}
	if err := checkVersion(header.FormatVersion); err != nil {
		info.Error = err.Error()
		return info
	}
	switch {
	case header.Model != nil:
		info.Kind = "model_bundle"
	case header.Scaler != nil:
		info.Kind = "scaler"
	}
	return info
}
