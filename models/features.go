package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Canonical feature names, in the order the model expects them by default.
const (
	FeatureHeight            = "Height_cm"
	FeatureLeafCount         = "Leaf_Count"
	FeatureNewGrowthCount    = "New_Growth_Count"
	FeatureWateringAmount    = "Watering_Amount_ml"
	FeatureWateringFrequency = "Watering_Frequency_days"
	FeatureRoomTemperature   = "Room_Temperature_C"
	FeatureHumidity          = "Humidity_%"
	FeatureSoilMoisture      = "Soil_Moisture_%"
)

// DefaultFeatureNames returns a fresh copy of the default feature order.
func DefaultFeatureNames() []string {
	return []string{
		FeatureHeight,
		FeatureLeafCount,
		FeatureNewGrowthCount,
		FeatureWateringAmount,
		FeatureWateringFrequency,
		FeatureRoomTemperature,
		FeatureHumidity,
		FeatureSoilMoisture,
	}
}

// FeatureDefaults are substituted for any missing input field.
var FeatureDefaults = map[string]float64{
	FeatureHeight:            30.0,
	FeatureLeafCount:         12.0,
	FeatureNewGrowthCount:    2.0,
	FeatureWateringAmount:    250.0,
	FeatureWateringFrequency: 3.0,
	FeatureRoomTemperature:   24.0,
	FeatureHumidity:          55.0,
	FeatureSoilMoisture:      50.0,
}

// Bound is an inclusive numeric range.
type Bound struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies inside the bound.
func (b Bound) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// FeatureBounds documents the accepted range of every feature.
var FeatureBounds = map[string]Bound{
	FeatureHeight:            {1, 300},
	FeatureLeafCount:         {1, 200},
	FeatureNewGrowthCount:    {0, 50},
	FeatureWateringAmount:    {0, 2000},
	FeatureWateringFrequency: {0.5, 30},
	FeatureRoomTemperature:   {10, 40},
	FeatureHumidity:          {0, 100},
	FeatureSoilMoisture:      {0, 100},
}

// SampleFeatures is the example body served by GET /test.
func SampleFeatures() map[string]float64 {
	return map[string]float64{
		FeatureHeight:            35.5,
		FeatureLeafCount:         18.0,
		FeatureNewGrowthCount:    3.0,
		FeatureWateringAmount:    300.0,
		FeatureWateringFrequency: 2.5,
		FeatureRoomTemperature:   24.5,
		FeatureHumidity:          60.0,
		FeatureSoilMoisture:      55.0,
	}
}

// Number is a float64 that also decodes from a quoted numeric string.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("value %s is not a valid number", b)
	}
	*n = Number(f)
	return nil
}

// PredictionRequest is the typed body of POST /predict. Every field is optional;
// the percent fields are also accepted under their *_percent names. Values may
// be JSON numbers or numeric strings.
type PredictionRequest struct {
	HeightCm              *Number `json:"Height_cm" binding:"omitempty,gte=1,lte=300"`
	LeafCount             *Number `json:"Leaf_Count" binding:"omitempty,gte=1,lte=200"`
	NewGrowthCount        *Number `json:"New_Growth_Count" binding:"omitempty,gte=0,lte=50"`
	WateringAmountMl      *Number `json:"Watering_Amount_ml" binding:"omitempty,gte=0,lte=2000"`
	WateringFrequencyDays *Number `json:"Watering_Frequency_days" binding:"omitempty,gte=0.5,lte=30"`
	RoomTemperatureC      *Number `json:"Room_Temperature_C" binding:"omitempty,gte=10,lte=40"`
	Humidity              *Number `json:"Humidity_%" binding:"omitempty,gte=0,lte=100"`
	HumidityPercent       *Number `json:"Humidity_percent" binding:"omitempty,gte=0,lte=100"`
	SoilMoisture          *Number `json:"Soil_Moisture_%" binding:"omitempty,gte=0,lte=100"`
	SoilMoisturePercent   *Number `json:"Soil_Moisture_percent" binding:"omitempty,gte=0,lte=100"`
}

// Features returns the request as a canonical feature map with defaults filled in.
func (r PredictionRequest) Features() map[string]float64 {
	out := make(map[string]float64, len(FeatureDefaults))
	for k, v := range FeatureDefaults {
		out[k] = v
	}
	set := func(name string, vals ...*Number) {
		for _, v := range vals {
			if v != nil {
				out[name] = float64(*v)
				return
			}
		}
	}
	set(FeatureHeight, r.HeightCm)
	set(FeatureLeafCount, r.LeafCount)
	set(FeatureNewGrowthCount, r.NewGrowthCount)
	set(FeatureWateringAmount, r.WateringAmountMl)
	set(FeatureWateringFrequency, r.WateringFrequencyDays)
	set(FeatureRoomTemperature, r.RoomTemperatureC)
	set(FeatureHumidity, r.Humidity, r.HumidityPercent)
	set(FeatureSoilMoisture, r.SoilMoisture, r.SoilMoisturePercent)
	return out
}
