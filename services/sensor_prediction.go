package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
)

var (
	ErrNoSensorSource    = errors.New("no sensor channel configured")
	ErrSensorUnavailable = errors.New("sensor channel unavailable")
)

// SensorSource returns the newest reading of a sensor channel.
type SensorSource interface {
	Latest(ctx context.Context) (*models.SensorReading, error)
}

// SensorPrediction is a prediction made from the latest channel reading.
type SensorPrediction struct {
	Result              *models.PredictionResult
	Reading             *models.SensorReading
	SoilMoistureRaw     int
	SoilMoisturePercent float64
}

// PredictFromSensor reads the latest channel entry and predicts with it.
// Temperature, humidity and converted soil moisture come from the reading and
// override the same keys in plant; everything else comes from plant or the
// feature defaults.
func (s *PredictionService) PredictFromSensor(ctx context.Context, plant map[string]float64) (*SensorPrediction, error) {
	if s.sensors == nil {
		return nil, ErrNoSensorSource
	}
	reading, err := s.sensors.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSensorUnavailable, err)
	}

	percent := models.SoilMoisturePercent(float64(reading.SoilMoisture))
	features := make(map[string]float64, len(plant)+3)
	for k, v := range plant {
		features[k] = v
	}
	features[models.FeatureRoomTemperature] = reading.Temperature
	features[models.FeatureHumidity] = reading.Humidity
	features[models.FeatureSoilMoisture] = percent

	s.log.WithFields(logrus.Fields{
		"entry_id":     reading.EntryID,
		"soil_raw":     reading.SoilMoisture,
		"soil_percent": percent,
		"sensor_time":  reading.Timestamp,
	}).Debug("predicting from sensor reading")

	res, err := s.run(ctx, models.EndpointSensor, features, true)
	if err != nil {
		return nil, err
	}
	return &SensorPrediction{
		Result:              res,
		Reading:             reading,
		SoilMoistureRaw:     reading.SoilMoisture,
		SoilMoisturePercent: percent,
	}, nil
}
