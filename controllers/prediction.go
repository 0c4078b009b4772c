package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/services"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/utils"
)

// PredictionHandler serves the prediction, introspection and history routes.
type PredictionHandler struct {
	svc *services.PredictionService
	log *logrus.Entry
}

func NewPredictionHandler(svc *services.PredictionService, log *logrus.Entry) *PredictionHandler {
	return &PredictionHandler{svc: svc, log: log}
}

func timestamp() string {
	return time.Now().Format(time.RFC3339Nano)
}

// Predict runs the model on a typed feature body.
func (h *PredictionHandler) Predict(c *gin.Context) {
	var req models.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid request", "detail": err.Error()})
		return
	}

	res, err := h.svc.Predict(c.Request.Context(), req.Features())
	if err != nil {
		h.log.WithError(err).Error("prediction error")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": gin.H{"error": err.Error()}})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                   true,
		"prediction":                res.Class,
		"original_model_prediction": res.OriginalClass,
		"prediction_label":          res.Label,
		"recommendation":            res.Recommendation,
		"confidence":                res.Confidence,
		"timestamp":                 res.Timestamp.Format(time.RFC3339Nano),
		"model_type":                res.ModelType,
		"using_fallback":            res.UsingFallback,
		"features_used":             res.Features,
		"prediction_id":             res.ID,
	})
}

// PredictSimple accepts free-form JSON, normalizes its keys and predicts.
// Every failure is reported with status 200 and success=false.
func (h *PredictionHandler) PredictSimple(c *gin.Context) {
	var data map[string]interface{}
	if err := c.ShouldBindJSON(&data); err != nil {
		h.simpleFailure(c, err)
		return
	}

	normalized := utils.NormalizeKeys(data, h.svc.FeatureNames())
	features, err := utils.ToFeatures(normalized)
	if err != nil {
		h.simpleFailure(c, err)
		return
	}

	res, err := h.svc.PredictSimple(c.Request.Context(), features)
	if err != nil {
		h.simpleFailure(c, err)
		return
	}

	outOfRange := utils.OutOfRange(res.Features)
	if outOfRange == nil {
		outOfRange = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":                   true,
		"prediction":                res.Class,
		"original_model_prediction": res.OriginalClass,
		"prediction_label":          res.Label,
		"confidence":                res.Confidence,
		"original_data":             data,
		"normalized_data":           features,
		"out_of_range":              outOfRange,
		"timestamp":                 res.Timestamp.Format(time.RFC3339Nano),
		"model_type":                res.ModelType,
		"using_fallback":            res.UsingFallback,
		"prediction_id":             res.ID,
	})
}

// PredictSensor predicts from the latest ThingSpeak reading. An optional
// typed body supplies the plant measurements.
func (h *PredictionHandler) PredictSensor(c *gin.Context) {
	var req models.PredictionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid request", "detail": err.Error()})
			return
		}
	}

	out, err := h.svc.PredictFromSensor(c.Request.Context(), req.Features())
	switch {
	case errors.Is(err, services.ErrNoSensorSource):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sensor channel not configured"})
		return
	case errors.Is(err, services.ErrSensorUnavailable):
		h.log.WithError(err).Warn("sensor read failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to read sensor channel", "detail": err.Error()})
		return
	case err != nil:
		h.log.WithError(err).Error("prediction error")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": gin.H{"error": err.Error()}})
		return
	}

	res := out.Result
	conversion := gin.H{"raw": out.SoilMoistureRaw, "percent": out.SoilMoisturePercent}
	outOfRange := utils.OutOfRange(res.Features)
	if outOfRange == nil {
		outOfRange = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":                   true,
		"prediction":                res.Class,
		"original_model_prediction": res.OriginalClass,
		"prediction_label":          res.Label,
		"recommendation":            res.Recommendation,
		"confidence":                res.Confidence,
		"timestamp":                 res.Timestamp.Format(time.RFC3339Nano),
		"model_type":                res.ModelType,
		"using_fallback":            res.UsingFallback,
		"features_used":             res.Features,
		"prediction_id":             res.ID,
		"out_of_range":              outOfRange,
		"sensor_data":               out.Reading,
		"soil_moisture_conversion":  conversion,
	})
}

func (h *PredictionHandler) simpleFailure(c *gin.Context, err error) {
	h.log.WithError(err).Warn("simple prediction error")
	c.JSON(http.StatusOK, gin.H{
		"success":   false,
		"error":     err.Error(),
		"timestamp": timestamp(),
	})
}
