package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, &models.PredictionRecord{ID: fmt.Sprint(i), Class: i}))
	}

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "4", recent[0].ID)
	assert.Equal(t, "2", recent[2].ID)

	recent, err = s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	require.NoError(t, s.Delete(ctx, "3"))
	assert.ErrorIs(t, s.Delete(ctx, "3"), ErrNotFound)

	recent, err = s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestMemoryStoreGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	require.NoError(t, s.Save(ctx, &models.PredictionRecord{ID: "a", Class: 3}))

	rec, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Class)

	rec.Class = 5
	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, again.Class)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreStats(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	midnight := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	records := []models.PredictionRecord{
		{ID: "1", Class: 5, Endpoint: models.EndpointPredict, CreatedAt: midnight.Add(-time.Hour)},
		{ID: "2", Class: 5, Endpoint: models.EndpointSimple, CreatedAt: midnight},
		{ID: "3", Class: 2, Endpoint: models.EndpointPredict, CreatedAt: midnight.Add(3 * time.Hour)},
	}
	for i := range records {
		require.NoError(t, s.Save(ctx, &records[i]))
	}

	st, err := s.Stats(ctx, midnight)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Total)
	assert.Equal(t, int64(2), st.Today)
	assert.Equal(t, map[int]int64{0: 0, 1: 0, 2: 1, 3: 0, 4: 0, 5: 2}, st.ClassDistribution)
	assert.Equal(t, map[string]int64{models.EndpointPredict: 2, models.EndpointSimple: 1}, st.EndpointDistribution)
}

func TestMemoryStoreStatsEmpty(t *testing.T) {
	st, err := NewMemoryStore(0).Stats(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, st.Total)
	assert.Len(t, st.ClassDistribution, models.MaxClass+1)
}
