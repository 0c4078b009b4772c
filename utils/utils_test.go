package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
)

func TestNormalizeKeys(t *testing.T) {
	in := map[string]interface{}{
		"humidity":      70.0,
		"SoilMoisture":  40.0,
		"Height_cm":     50.0,
		"Leaf Count":    10.0,
		"favorite_song": "x",
	}
	out := NormalizeKeys(in, models.DefaultFeatureNames())
	assert.Equal(t, map[string]interface{}{
		"Humidity_%":      70.0,
		"Soil_Moisture_%": 40.0,
		"Height_cm":       50.0,
		"Leaf_Count":      10.0,
	}, out)
}

func TestNormalizeKeysExactNameWins(t *testing.T) {
	for i := 0; i < 500; i++ {
		out := NormalizeKeys(map[string]interface{}{
			"humidity":   10.0,
			"Humidity_%": 90.0,
		}, models.DefaultFeatureNames())
		require.Equal(t, 90.0, out[models.FeatureHumidity], "iteration %d", i)
	}

	out := NormalizeKeys(map[string]interface{}{
		"Soil Moisture_%": 5.0,
		"SoilMoisture":    15.0,
		"Soil_Moisture_%": 25.0,
	}, models.DefaultFeatureNames())
	assert.Equal(t, 25.0, out[models.FeatureSoilMoisture])
}

func TestNormalizeKeysAliasCollisionIsStable(t *testing.T) {
	for i := 0; i < 200; i++ {
		out := NormalizeKeys(map[string]interface{}{
			"Humidity":         1.0,
			"humidity":         2.0,
			"Humidity_percent": 3.0,
		}, models.DefaultFeatureNames())
		require.Equal(t, 2.0, out[models.FeatureHumidity], "iteration %d", i)
	}
}

func TestToFloat(t *testing.T) {
	cases := []struct {
		in      interface{}
		want    float64
		wantErr bool
	}{
		{12.5, 12.5, false},
		{"  42 ", 42, false},
		{true, 1, false},
		{"wet", 0, true},
		{nil, 0, true},
		{[]interface{}{1.0}, 0, true},
	}
	for _, c := range cases {
		got, err := ToFloat(c.in)
		if c.wantErr {
			assert.Error(t, err, "input %v", c.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestToFeatures(t *testing.T) {
	_, err := ToFeatures(map[string]interface{}{"Height_cm": "tall"})
	assert.ErrorContains(t, err, "Height_cm")
}

func TestOutOfRange(t *testing.T) {
	got := OutOfRange(map[string]float64{
		"Height_cm":          500,
		"Room_Temperature_C": 5,
		"Humidity_%":         50,
		"unknown":            -1,
	})
	assert.Equal(t, []string{"Height_cm", "Room_Temperature_C"}, got)
}
