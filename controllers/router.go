package controllers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/config"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/middlewares"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/services"
)

// SetupRouter wires every route of the prediction service.
func SetupRouter(svc *services.PredictionService, hub *Hub, cfg config.ServerConfig, log *logrus.Entry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestLogger(log))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	h := NewPredictionHandler(svc, log)

	// Public routes
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/test", h.Test)
	r.GET("/features", h.Features)
	r.GET("/model-info", h.ModelInfo)
	r.POST("/predict", h.Predict)
	r.POST("/predict/simple", h.PredictSimple)
	r.POST("/predict/sensor", h.PredictSensor)

	// History and live feed, protected when a JWT secret is configured
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware(cfg.JWTSecret))
	auth.GET("/ws", hub.HandleWebSocket)
	auth.GET("/predictions", h.GetHistory)
	auth.GET("/predictions/download-csv", h.DownloadCSV)
	auth.GET("/predictions/stats", h.GetStats)
	auth.GET("/predictions/:id", h.GetRecord)
	auth.DELETE("/predictions/:id", h.DeleteRecord)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
