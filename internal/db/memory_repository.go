package db

import (
	"context"

	"github.com/terraincognita07/tandem/internal/models"
	"gorm.io/gorm"
)

type MemoryRepository struct {
	database *gorm.DB
}

func NewMemoryRepository(database *gorm.DB) *MemoryRepository {
	return &MemoryRepository{database: database}
}

func (repo *MemoryRepository) Create(ctx context.Context, memory *models.Memory) error {
	return repo.database.WithContext(ctx).Create(memory).Error
}

func (repo *MemoryRepository) ListByCouple(ctx context.Context, coupleID uint, limit int) ([]models.Memory, error) {
	query := repo.database.WithContext(ctx).Where("couple_id = ?", coupleID).Order("day DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	memories := make([]models.Memory, 0)
	if err := query.Find(&memories).Error; err != nil {
		return nil, err
	}
	return memories, nil
}
