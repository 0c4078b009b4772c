package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/cache"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/config"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/controllers"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/logger"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/ml"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/services"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/storage"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	log := logger.New("server")
	if logger.ParseLevel(cfg.LogLevel) < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Model artifacts
	if artifacts, err := ml.Inspect(cfg.Model.Dir); err != nil {
		log.WithError(err).Warn("could not inspect model directory")
	} else {
		for _, a := range artifacts {
			log.WithFields(logrus.Fields{"file": a.Name, "kind": a.Kind, "error": a.Error}).Info("found model artifact")
		}
	}
	bundle := ml.LoadOrFallback(cfg.Model.ModelPath, cfg.Model.ScalerPath, logger.New("ml"))
	log.WithFields(logrus.Fields{
		"model_type":     bundle.Model.Name(),
		"scaler_type":    bundle.ScalerName(),
		"using_fallback": bundle.Fallback,
		"features":       len(bundle.FeatureNames),
	}).Info("model ready")

	// Prediction history
	var store storage.PredictionStore = storage.NewMemoryStore(0)
	if cfg.Database.URL != "" {
		db, err := config.OpenDatabase(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		gs, err := storage.NewGormStore(db)
		if err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		store = gs
		log.Info("prediction history stored in PostgreSQL")
	} else {
		log.Info("DATABASE_URL not set, prediction history kept in memory")
	}

	// Caching: L1 (local) -> L2 (Redis, optional)
	tiered := &cache.Tiered{L1: cache.NewLocalCache(ctx, cfg.Cache.TTL, cfg.Cache.MaxSize)}
	if cfg.Cache.RedisAddress != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddress, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.TTL, logger.New("redis"))
		if err != nil {
			log.WithError(err).Warn("redis unavailable, using local cache only")
		} else {
			defer rc.Close()
			tiered.L2 = rc
		}
	}

	hub := controllers.NewHub(logger.New("websocket"))
	opts := []services.Option{
		services.WithStore(store),
		services.WithCache(tiered),
		services.WithBroadcaster(hub),
		services.WithModelDir(cfg.Model.Dir),
		services.WithLogger(logger.New("prediction")),
	}
	if reader := telemetry.NewChannelReader(cfg.Telemetry, logger.New("thingspeak")); reader != nil {
		opts = append(opts, services.WithSensorSource(reader))
		log.WithField("channel", cfg.Telemetry.ChannelID).Info("sensor predictions read from ThingSpeak")
	}
	svc := services.NewPredictionService(bundle, opts...)
	router := controllers.SetupRouter(svc, hub, cfg.Server, logger.New("http"))

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("Starting BotaniAI ML Service on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
}
