package services

import (
	"context"
	"time"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/ml"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/storage"
)

// ModelInfo summarizes the loaded bundle for the introspection routes.
type ModelInfo struct {
	ModelType        string
	ScalerType       string
	UsingFallback    bool
	FeatureNames     []string
	HasProbabilities bool
	Source           string
	AvailableFiles   []string
}

func (s *PredictionService) ModelInfo() ModelInfo {
	info := ModelInfo{
		ModelType:        s.bundle.Model.Name(),
		ScalerType:       s.bundle.ScalerName(),
		UsingFallback:    s.bundle.Fallback,
		FeatureNames:     s.FeatureNames(),
		HasProbabilities: s.bundle.HasProbabilities(),
		Source:           s.bundle.Source,
		AvailableFiles:   []string{},
	}
	artifacts, err := ml.Inspect(s.modelDir)
	if err != nil {
		s.log.WithError(err).Warn("could not inspect model directory")
		return info
	}
	for _, a := range artifacts {
		info.AvailableFiles = append(info.AvailableFiles, a.Name)
	}
	return info
}

// FeatureNames returns a copy of the bundle's feature order.
func (s *PredictionService) FeatureNames() []string {
	return append([]string(nil), s.bundle.FeatureNames...)
}

func (s *PredictionService) UsingFallback() bool { return s.bundle.Fallback }
func (s *PredictionService) ModelType() string   { return s.bundle.Model.Name() }

// StoreHealthy pings the history store.
func (s *PredictionService) StoreHealthy(ctx context.Context) bool {
	return s.store == nil || s.store.Health(ctx) == nil
}

// History returns the most recent predictions, newest first.
func (s *PredictionService) History(ctx context.Context, limit int) ([]models.PredictionRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Recent(ctx, limit)
}

func (s *PredictionService) DeleteRecord(ctx context.Context, id string) error {
	if s.store == nil {
		return storage.ErrNotFound
	}
	return s.store.Delete(ctx, id)
}

// Record returns one stored prediction.
func (s *PredictionService) Record(ctx context.Context, id string) (*models.PredictionRecord, error) {
	if s.store == nil {
		return nil, storage.ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// Stats summarizes the history. "Today" starts at local midnight.
func (s *PredictionService) Stats(ctx context.Context) (*models.PredictionStats, error) {
	if s.store == nil {
		return models.NewPredictionStats(), nil
	}
	now := s.now()
	y, m, d := now.Date()
	return s.store.Stats(ctx, time.Date(y, m, d, 0, 0, 0, 0, now.Location()))
}
