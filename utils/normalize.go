package utils

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
)

// keyAliases maps alternative spellings onto canonical feature names.
var keyAliases = map[string]string{
	"Humidity":             models.FeatureHumidity,
	"humidity":             models.FeatureHumidity,
	"Humidity_percent":     models.FeatureHumidity,
	"SoilMoisture":         models.FeatureSoilMoisture,
	"soil_moisture":        models.FeatureSoilMoisture,
	"SoilMoisture_percent": models.FeatureSoilMoisture,
}

// NormalizeKeys maps free-form input keys onto the given feature names.
// An exact feature name always beats an alias or an underscored spelling of
// the same feature. When several aliases collide, the lexically last key
// wins. Keys matching nothing are dropped.
func NormalizeKeys(data map[string]interface{}, featureNames []string) map[string]interface{} {
	known := make(map[string]bool, len(featureNames))
	for _, n := range featureNames {
		known[n] = true
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make(map[string]interface{})
	for _, key := range keys {
		if known[key] {
			continue
		}
		if canonical, ok := keyAliases[key]; ok {
			out[canonical] = data[key]
		} else if underscored := strings.ReplaceAll(key, " ", "_"); known[underscored] {
			out[underscored] = data[key]
		}
	}
	for _, key := range keys {
		if known[key] {
			out[key] = data[key]
		}
	}
	return out
}

// ToFloat converts a decoded JSON value into a float64. Numeric strings are
// accepted; anything else is an error.
func ToFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("could not convert string to float: %q", n)
		}
		return f, nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported value %v of type %T", v, v)
	}
}

// ToFeatures converts every value of a normalized map with ToFloat.
func ToFeatures(normalized map[string]interface{}) (map[string]float64, error) {
	out := make(map[string]float64, len(normalized))
	for k, v := range normalized {
		f, err := ToFloat(v)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", k, err)
		}
		out[k] = f
	}
	return out, nil
}
