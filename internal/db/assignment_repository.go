package db

import (
	"context"

	"github.com/terraincognita07/tandem/internal/models"
	"gorm.io/gorm"
)

type AssignmentRepository struct {
	database *gorm.DB
}

func NewAssignmentRepository(database *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{database: database}
}

func (repo *AssignmentRepository) FindByCoupleAndDay(ctx context.Context, coupleID uint, day string) (models.DailyAssignment, bool, error) {
	var assignment models.DailyAssignment
	result := repo.database.WithContext(ctx).
		Where("couple_id = ? AND day = ?", coupleID, day).
		Limit(1).
		Find(&assignment)
	if result.Error != nil {
		return models.DailyAssignment{}, false, result.Error
	}
	return assignment, result.RowsAffected > 0, nil
}

// Create returns gorm.ErrDuplicatedKey when the couple already has an
// assignment for the day.
func (repo *AssignmentRepository) Create(ctx context.Context, assignment *models.DailyAssignment) error {
	return normalizeWriteError(repo.database.WithContext(ctx).Create(assignment).Error)
}
