package utils

import (
	"sort"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
)

// OutOfRange returns the names of features whose values fall outside their
// documented bounds, sorted by name. Unknown names are ignored.
func OutOfRange(features map[string]float64) []string {
	var out []string
	for name, v := range features {
		if b, ok := models.FeatureBounds[name]; ok && !b.Contains(v) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
