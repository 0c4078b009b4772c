package models

import (
	"math"
	"time"
)

// Raw soil sensor range. Dry soil reads high, wet soil low.
const (
	SoilRawDry     = 4095
	SoilRawWet     = 1000
	DefaultSoilRaw = 1017
)

// SensorReading is one sample on the ThingSpeak channel, either uploaded by
// the simulator or read back from the channel feed.
// Field numbers match the ThingSpeak channel layout (field1..field4).
type SensorReading struct {
	EntryID      int64     `json:"entry_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Temperature  float64   `json:"temperature"`   // field1, °C
	Humidity     float64   `json:"humidity"`      // field2, %
	Light        int       `json:"light"`         // field3, raw LDR value
	SoilMoisture int       `json:"soil_moisture"` // field4, raw analog value
}

// SoilMoisturePercent converts a raw soil reading into the percent scale the
// model was trained on. raw is clamped to [SoilRawWet, SoilRawDry] and the
// result is rounded to one decimal.
func SoilMoisturePercent(raw float64) float64 {
	clamped := math.Min(math.Max(raw, SoilRawWet), SoilRawDry)
	percent := (SoilRawDry - clamped) / (SoilRawDry - SoilRawWet) * 100
	return math.Round(percent*10) / 10
}
