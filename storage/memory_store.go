package storage

import (
	"context"
	"sync"
	"time"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
)

// MemoryStore keeps the most recent records in process memory. It is used
// when no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.PredictionRecord
	max     int
}

func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = 1000
	}
	return &MemoryStore{max: max}
}

func (s *MemoryStore) Save(_ context.Context, rec *models.PredictionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *rec)
	if len(s.records) > s.max {
		s.records = s.records[len(s.records)-s.max:]
	}
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]models.PredictionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}
	out := make([]models.PredictionRecord, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.PredictionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.records {
		if s.records[i].ID == id {
			rec := s.records[i]
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Stats(_ context.Context, since time.Time) (*models.PredictionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := models.NewPredictionStats()
	for _, r := range s.records {
		st.Total++
		if !r.CreatedAt.Before(since) {
			st.Today++
		}
		st.ClassDistribution[r.Class]++
		st.EndpointDistribution[r.Endpoint]++
	}
	return st, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Health(context.Context) error { return nil }
