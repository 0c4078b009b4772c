package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/cache"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/logger"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/ml"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/storage"
)

const (
	// DefaultConfidence is reported when the model cannot produce probabilities.
	DefaultConfidence = 0.85
	MinConfidence     = 0.01
	MaxConfidence     = 1.0
)

// Broadcaster pushes new predictions to live subscribers.
type Broadcaster interface {
	Broadcast(v interface{})
}

// PredictionService runs the loaded model bundle. The bundle is read-only, so
// a single service value is safe for concurrent requests.
type PredictionService struct {
	bundle   *ml.Bundle
	store    storage.PredictionStore
	cache    cache.Cache
	hub      Broadcaster
	sensors  SensorSource
	modelDir string
	log      *logrus.Entry
	now      func() time.Time
}

type Option func(*PredictionService)

func WithStore(s storage.PredictionStore) Option { return func(p *PredictionService) { p.store = s } }
func WithCache(c cache.Cache) Option             { return func(p *PredictionService) { p.cache = c } }
func WithBroadcaster(b Broadcaster) Option       { return func(p *PredictionService) { p.hub = b } }
func WithSensorSource(src SensorSource) Option   { return func(p *PredictionService) { p.sensors = src } }
func WithModelDir(dir string) Option             { return func(p *PredictionService) { p.modelDir = dir } }
func WithLogger(l *logrus.Entry) Option          { return func(p *PredictionService) { p.log = l } }

func NewPredictionService(bundle *ml.Bundle, opts ...Option) *PredictionService {
	s := &PredictionService{
		bundle:   bundle,
		store:    storage.NewMemoryStore(0),
		modelDir: ".",
		log:      logger.New("prediction"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Predict serves POST /predict. A scaling failure is logged and the raw
// features are used instead.
func (s *PredictionService) Predict(ctx context.Context, features map[string]float64) (*models.PredictionResult, error) {
	return s.run(ctx, models.EndpointPredict, features, true)
}

// PredictSimple serves POST /predict/simple. Scaling failures are returned.
func (s *PredictionService) PredictSimple(ctx context.Context, features map[string]float64) (*models.PredictionResult, error) {
	return s.run(ctx, models.EndpointSimple, features, false)
}

type cachedPrediction struct {
	OriginalClass int     `json:"original_class"`
	Confidence    float64 `json:"confidence"`
}

func (s *PredictionService) run(ctx context.Context, endpoint string, input map[string]float64, lenientScaling bool) (*models.PredictionResult, error) {
	log := s.log.WithField("endpoint", endpoint)
	if s.bundle.Fallback {
		log.Warn("using fallback model, prediction is based on random data")
	}

	features := make(map[string]float64, len(models.FeatureDefaults)+len(input))
	for k, v := range models.FeatureDefaults {
		features[k] = v
	}
	for k, v := range input {
		features[k] = v
	}
	row := s.bundle.Row(features)
	key := s.bundle.Model.Name() + "|" + s.bundle.Source + "|" + cacheKey(row)

	var outcome cachedPrediction
	hit := s.lookup(ctx, key, &outcome)
	if !hit {
		x, scaled, err := s.scale(row)
		if err != nil {
			if !lenientScaling {
				return nil, err
			}
			log.WithError(err).Warn("scaling error, using raw features")
		}

		original, err := s.bundle.Model.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("prediction failed: %w", err)
		}
		outcome = cachedPrediction{
			OriginalClass: original,
			Confidence:    ClampConfidence(s.confidence(log, x, original)),
		}
		if scaled || s.bundle.Scaler == nil {
			s.remember(ctx, key, outcome)
		}
	}

	class := RemapClass(outcome.OriginalClass)
	if class != outcome.OriginalClass {
		log.Debugf("class %d detected, converting to class %d", outcome.OriginalClass, class)
	}

	result := &models.PredictionResult{
		ID:             uuid.NewString(),
		Class:          class,
		OriginalClass:  outcome.OriginalClass,
		Label:          models.ClassLabel(class),
		Recommendation: models.ClassDescription(class),
		Confidence:     outcome.Confidence,
		Features:       features,
		ModelType:      s.bundle.Model.Name(),
		UsingFallback:  s.bundle.Fallback,
		CacheHit:       hit,
		Timestamp:      s.now(),
	}
	log.WithFields(logrus.Fields{
		"original_class": result.OriginalClass,
		"class":          result.Class,
		"confidence":     result.Confidence,
		"cache_hit":      hit,
	}).Info("prediction served")

	s.record(ctx, endpoint, result)
	return result, nil
}

// scale reports whether the returned row was actually rescaled.
func (s *PredictionService) scale(row []float64) ([]float64, bool, error) {
	if s.bundle.Scaler == nil {
		return row, false, nil
	}
	x, err := s.bundle.Scaler.Transform(row)
	if err != nil {
		return row, false, fmt.Errorf("scaling failed: %w", err)
	}
	return x, true, nil
}

func (s *PredictionService) confidence(log *logrus.Entry, x []float64, class int) float64 {
	pe, ok := s.bundle.Model.(ml.ProbabilityEstimator)
	if !ok {
		log.Debug("model has no probabilities, using default confidence")
		return DefaultConfidence
	}
	proba, err := pe.PredictProba(x)
	if err != nil {
		log.WithError(err).Warn("confidence calculation error")
		return DefaultConfidence
	}
	for i, c := range s.bundle.Model.Classes() {
		if c == class && i < len(proba) {
			return proba[i]
		}
	}
	best := 0.0
	for _, p := range proba {
		best = math.Max(best, p)
	}
	return best
}

func (s *PredictionService) lookup(ctx context.Context, key string, out *cachedPrediction) bool {
	if s.cache == nil {
		return false
	}
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.log.WithError(err).Warn("discarding unreadable cache entry")
		return false
	}
	return true
}

func (s *PredictionService) remember(ctx context.Context, key string, outcome cachedPrediction) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(outcome)
	if err != nil {
		return
	}
	s.cache.Set(ctx, key, data)
}

// record stores and broadcasts a result. Failures are logged only.
func (s *PredictionService) record(ctx context.Context, endpoint string, r *models.PredictionResult) {
	features, err := json.Marshal(r.Features)
	if err != nil {
		s.log.WithError(err).Warn("failed to encode features for history")
	}
	rec := &models.PredictionRecord{
		ID:            r.ID,
		Endpoint:      endpoint,
		Class:         r.Class,
		OriginalClass: r.OriginalClass,
		Confidence:    r.Confidence,
		Features:      datatypes.JSON(features),
		ModelType:     r.ModelType,
		UsingFallback: r.UsingFallback,
		CreatedAt:     r.Timestamp,
	}
	if s.store != nil {
		if err := s.store.Save(ctx, rec); err != nil {
			s.log.WithError(err).Error("failed to save prediction")
		}
	}
	if s.hub != nil {
		s.hub.Broadcast(r)
	}
}

// RemapClass turns the model's class 0 into class 1; other classes pass through.
func RemapClass(class int) int {
	if class == 0 {
		return 1
	}
	return class
}

// ClampConfidence bounds c to [MinConfidence, MaxConfidence] and rounds it to
// three decimals.
func ClampConfidence(c float64) float64 {
	if math.IsNaN(c) || c < MinConfidence {
		c = MinConfidence
	}
	if c > MaxConfidence {
		c = MaxConfidence
	}
	return math.Round(c*1000) / 1000
}

func cacheKey(row []float64) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
