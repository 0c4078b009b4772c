package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
)

const serviceName = "BotaniAI ML Service"

// Root describes the running service.
func (h *PredictionHandler) Root(c *gin.Context) {
	names := h.svc.FeatureNames()
	c.JSON(http.StatusOK, gin.H{
		"service":        serviceName,
		"status":         "running",
		"model_loaded":   true,
		"model_type":     h.svc.ModelType(),
		"using_fallback": h.svc.UsingFallback(),
		"features":       names,
		"features_count": len(names),
		"timestamp":      timestamp(),
	})
}

// Health reports liveness. A failing history store is reported but does not
// make the service unhealthy.
func (h *PredictionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"model":          h.svc.ModelType(),
		"using_fallback": h.svc.UsingFallback(),
		"features_count": len(h.svc.FeatureNames()),
		"store_healthy":  h.svc.StoreHealthy(c.Request.Context()),
		"timestamp":      timestamp(),
	})
}

// Test returns a ready-made request body for /predict.
func (h *PredictionHandler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":        "Test endpoint",
		"sample_request": models.SampleFeatures(),
		"timestamp":      timestamp(),
	})
}

// Features lists the model's feature names in order.
func (h *PredictionHandler) Features(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"features":  h.svc.FeatureNames(),
		"timestamp": timestamp(),
	})
}

// ModelInfo exposes the loaded model, scaler and artifact directory.
func (h *PredictionHandler) ModelInfo(c *gin.Context) {
	info := h.svc.ModelInfo()
	scalerType := info.ScalerType
	if scalerType == "" {
		scalerType = "None"
	}
	c.JSON(http.StatusOK, gin.H{
		"model_type":            info.ModelType,
		"scaler_type":           scalerType,
		"using_fallback":        info.UsingFallback,
		"feature_names":         info.FeatureNames,
		"features_count":        len(info.FeatureNames),
		"available_model_files": info.AvailableFiles,
		"model_loaded":          true,
		"scaler_loaded":         info.ScalerType != "",
		"has_predict_proba":     info.HasProbabilities,
		"model_source":          info.Source,
		"timestamp":             timestamp(),
	})
}
