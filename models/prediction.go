package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Endpoints that produce predictions.
const (
	EndpointPredict = "predict"
	EndpointSimple  = "predict/simple"
	EndpointSensor  = "predict/sensor"
)

// MaxClass is the highest class the service reports.
const MaxClass = 5

// PredictionResult is the outcome of one model invocation.
type PredictionResult struct {
	ID             string             `json:"prediction_id"`
	Class          int                `json:"prediction"`
	OriginalClass  int                `json:"original_model_prediction"`
	Label          string             `json:"prediction_label"`
	Recommendation string             `json:"recommendation"`
	Confidence     float64            `json:"confidence"`
	Features       map[string]float64 `json:"features_used"`
	ModelType      string             `json:"model_type"`
	UsingFallback  bool               `json:"using_fallback"`
	CacheHit       bool               `json:"cache_hit"`
	Timestamp      time.Time          `json:"timestamp"`
}

// PredictionRecord stores a prediction for the history endpoints.
type PredictionRecord struct {
	ID            string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Endpoint      string         `json:"endpoint" gorm:"not null"`
	Class         int            `json:"prediction"`
	OriginalClass int            `json:"original_model_prediction"`
	Confidence    float64        `json:"confidence"`
	Features      datatypes.JSON `json:"features"`
	ModelType     string         `json:"model_type"`
	UsingFallback bool           `json:"using_fallback"`
	CreatedAt     time.Time      `json:"created_at" gorm:"index"`
}

// PredictionStats summarizes the stored history.
type PredictionStats struct {
	Total                int64            `json:"total_predictions"`
	Today                int64            `json:"today_predictions"`
	ClassDistribution    map[int]int64    `json:"class_distribution"`
	EndpointDistribution map[string]int64 `json:"endpoint_distribution"`
}

// NewPredictionStats returns empty stats with every class 0..MaxClass present.
func NewPredictionStats() *PredictionStats {
	st := &PredictionStats{
		ClassDistribution:    make(map[int]int64, MaxClass+1),
		EndpointDistribution: make(map[string]int64),
	}
	for c := 0; c <= MaxClass; c++ {
		st.ClassDistribution[c] = 0
	}
	return st
}

var classDescriptions = map[int]string{
	0: "UNKNOWN - Class 0 from model",
	1: "CRITICAL - Immediate attention needed!",
	2: "POOR - Plant health declining.",
	3: "FAIR - Plant is struggling.",
	4: "AVERAGE - Minor adjustments needed.",
	5: "GOOD - Plant is healthy.",
}

// ClassDescription returns the human-readable recommendation for a class.
func ClassDescription(class int) string {
	if d, ok := classDescriptions[class]; ok {
		return d
	}
	return fmt.Sprintf("Unknown class %d", class)
}

// ClassLabel formats the short label, e.g. "Class 3".
func ClassLabel(class int) string {
	return fmt.Sprintf("Class %d", class)
}
