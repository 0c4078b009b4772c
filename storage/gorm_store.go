package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
)

// GormStore persists prediction records in PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore runs the migrations and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&models.PredictionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate prediction records: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Save(ctx context.Context, rec *models.PredictionRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *GormStore) Recent(ctx context.Context, limit int) ([]models.PredictionRecord, error) {
	var records []models.PredictionRecord
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*models.PredictionRecord, error) {
	var rec models.PredictionRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *GormStore) Stats(ctx context.Context, since time.Time) (*models.PredictionStats, error) {
	db := s.db.WithContext(ctx).Model(&models.PredictionRecord{})
	st := models.NewPredictionStats()

	if err := db.Session(&gorm.Session{}).Count(&st.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count predictions: %w", err)
	}
	if err := db.Session(&gorm.Session{}).Where("created_at >= ?", since).Count(&st.Today).Error; err != nil {
		return nil, fmt.Errorf("failed to count today's predictions: %w", err)
	}

	var byClass []struct {
		Class int
		Total int64
	}
	if err := db.Session(&gorm.Session{}).Select("class, count(*) AS total").Group("class").Scan(&byClass).Error; err != nil {
		return nil, fmt.Errorf("failed to group predictions by class: %w", err)
	}
	for _, row := range byClass {
		st.ClassDistribution[row.Class] = row.Total
	}

	var byEndpoint []struct {
		Endpoint string
		Total    int64
	}
	if err := db.Session(&gorm.Session{}).Select("endpoint, count(*) AS total").Group("endpoint").Scan(&byEndpoint).Error; err != nil {
		return nil, fmt.Errorf("failed to group predictions by endpoint: %w", err)
	}
	for _, row := range byEndpoint {
		st.EndpointDistribution[row.Endpoint] = row.Total
	}
	return st, nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PredictionRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
