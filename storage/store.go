package storage

import (
	"context"
	"errors"
	"time"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
)

var ErrNotFound = errors.New("record not found")

// PredictionStore keeps the history of served predictions.
type PredictionStore interface {
	Save(ctx context.Context, rec *models.PredictionRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]models.PredictionRecord, error)
	Get(ctx context.Context, id string) (*models.PredictionRecord, error)
	// Stats counts all records; Today counts those created at or after since.
	Stats(ctx context.Context, since time.Time) (*models.PredictionStats, error)
	Delete(ctx context.Context, id string) error
	Health(ctx context.Context) error
}
