package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

// FormatVersion is the only artifact schema version this build understands.
const FormatVersion = 1

// Artifact kinds.
const (
	KindRandomForest       = "random_forest"
	KindLogisticRegression = "logistic_regression"
	KindStandardScaler     = "standard"
	KindMinMaxScaler       = "minmax"
)

// BundleFile is the on-disk model artifact:
//
//	{"format_version":1,"feature_names":[...],"model":{...},"scaler":{...}}
//
// feature_names and scaler are optional.
type BundleFile struct {
	FormatVersion int         `json:"format_version"`
	FeatureNames  []string    `json:"feature_names,omitempty"`
	Model         *ModelSpec  `json:"model"`
	Scaler        *ScalerSpec `json:"scaler,omitempty"`
}

// ScalerFile is a standalone scaler artifact.
type ScalerFile struct {
	FormatVersion int         `json:"format_version"`
	Scaler        *ScalerSpec `json:"scaler"`
}

// ModelSpec describes a classifier. Trees are used by random_forest,
// Coefficients and Intercepts by logistic_regression.
type ModelSpec struct {
	Type         string      `json:"type"`
	Classes      []int       `json:"classes"`
	NumFeatures  int         `json:"n_features"`
	Trees        []Tree      `json:"trees,omitempty"`
	Coefficients [][]float64 `json:"coefficients,omitempty"`
	Intercepts   []float64   `json:"intercepts,omitempty"`
}

// ScalerSpec describes a feature scaler.
type ScalerSpec struct {
	Type    string    `json:"type"`
	Mean    []float64 `json:"mean,omitempty"`
	Scale   []float64 `json:"scale,omitempty"`
	DataMin []float64 `json:"data_min,omitempty"`
	DataMax []float64 `json:"data_max,omitempty"`
}

func newClassifier(spec *ModelSpec) (Classifier, error) {
	switch spec.Type {
	case KindRandomForest:
		f, err := NewRandomForest(spec.Classes, spec.NumFeatures, spec.Trees)
		if err != nil {
			return nil, err
		}
		return f, nil
	case KindLogisticRegression:
		m, err := NewLogisticRegression(spec.Classes, spec.Coefficients, spec.Intercepts)
		if err != nil {
			return nil, err
		}
		if spec.NumFeatures != 0 && spec.NumFeatures != m.NumFeatures() {
			return nil, fmt.Errorf("%w: n_features %d but coefficients have %d columns",
				ErrDimensionMismatch, spec.NumFeatures, m.NumFeatures())
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: model type %q", ErrUnknownKind, spec.Type)
	}
}

func checkVersion(v int) error {
	if v != FormatVersion {
		return fmt.Errorf("%w: %d (want %d)", ErrUnsupportedVersion, v, FormatVersion)
	}
	return nil
}

func readBundleFile(path string) (*BundleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	var f BundleFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse model file %s: %w", path, err)
	}
	if err := checkVersion(f.FormatVersion); err != nil {
		return nil, err
	}
	if f.Model == nil {
		return nil, fmt.Errorf("%w: %s has no model section", ErrInvalidModel, path)
	}
	return &f, nil
}

func readScalerFile(path string) (Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scaler file: %w", err)
	}
	var f ScalerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse scaler file %s: %w", path, err)
	}
	if err := checkVersion(f.FormatVersion); err != nil {
		return nil, err
	}
	if f.Scaler == nil {
		return nil, fmt.Errorf("%w: %s has no scaler section", ErrInvalidModel, path)
	}
	return newScaler(f.Scaler)
}

// WriteBundle serializes a bundle into the versioned artifact format.
func WriteBundle(path string, b *Bundle) error {
	ms, ok := b.Model.(interface{ spec() ModelSpec })
	if !ok {
		return fmt.Errorf("%w: %s cannot be serialized", ErrUnknownKind, b.Model.Name())
	}
	model := ms.spec()
	f := BundleFile{
		FormatVersion: FormatVersion,
		FeatureNames:  b.FeatureNames,
		Model:         &model,
	}
	if b.Scaler != nil {
		ss, ok := b.Scaler.(interface{ spec() ScalerSpec })
		if !ok {
			return fmt.Errorf("%w: %s cannot be serialized", ErrUnknownKind, b.Scaler.Name())
		}
		scaler := ss.spec()
		f.Scaler = &scaler
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	return nil
}
