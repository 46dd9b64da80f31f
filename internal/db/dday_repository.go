package db

import (
	"context"

	"github.com/terraincognita07/tandem/internal/models"
	"gorm.io/gorm"
)

type DDayRepository struct {
	database *gorm.DB
}

func NewDDayRepository(database *gorm.DB) *DDayRepository {
	return &DDayRepository{database: database}
}

func (repo *DDayRepository) Create(ctx context.Context, dday *models.DDay) error {
	return repo.database.WithContext(ctx).Create(dday).Error
}

func (repo *DDayRepository) FindForCouple(ctx context.Context, ddayID uint, coupleID uint) (models.DDay, bool, error) {
	var dday models.DDay
	result := repo.database.WithContext(ctx).
		Where("id = ? AND couple_id = ?", ddayID, coupleID).
		Limit(1).
		Find(&dday)
	if result.Error != nil {
		return models.DDay{}, false, result.Error
	}
	return dday, result.RowsAffected > 0, nil
}

func (repo *DDayRepository) ListByCouple(ctx context.Context, coupleID uint) ([]models.DDay, error) {
	ddays := make([]models.DDay, 0)
	err := repo.database.WithContext(ctx).
		Where("couple_id = ?", coupleID).
		Order("target_day ASC").
		Order("id ASC").
		Find(&ddays).Error
	if err != nil {
		return nil, err
	}
	return ddays, nil
}

// Update rewrites the editable fields. Moving the target day clears the
// reminder marker so the new date is announced again.
func (repo *DDayRepository) Update(ctx context.Context, dday *models.DDay) (int64, error) {
	result := repo.database.WithContext(ctx).Model(&models.DDay{}).
		Where("id = ? AND couple_id = ?", dday.ID, dday.CoupleID).
		Updates(map[string]any{
			"title":       dday.Title,
			"description": dday.Description,
			"target_day":  dday.TargetDay,
			"reminded_on": dday.RemindedOn,
			"updated_at":  dday.UpdatedAt,
		})
	return result.RowsAffected, result.Error
}

func (repo *DDayRepository) DeleteForCouple(ctx context.Context, ddayID uint, coupleID uint) (int64, error) {
	result := repo.database.WithContext(ctx).
		Where("id = ? AND couple_id = ?", ddayID, coupleID).
		Delete(&models.DDay{})
	return result.RowsAffected, result.Error
}

// ListDue returns the D-Days falling on one of targetDays that have not been
// reminded on today yet.
func (repo *DDayRepository) ListDue(ctx context.Context, targetDays []string, today string) ([]models.DDay, error) {
	ddays := make([]models.DDay, 0)
	if len(targetDays) == 0 {
		return ddays, nil
	}
	err := repo.database.WithContext(ctx).
		Where("target_day IN ? AND reminded_on <> ?", targetDays, today).
		Order("id ASC").
		Find(&ddays).Error
	if err != nil {
		return nil, err
	}
	return ddays, nil
}

// MarkReminded claims today's reminder for one D-Day. Only one caller per
// day gets true, whichever instance it runs on.
func (repo *DDayRepository) MarkReminded(ctx context.Context, ddayID uint, today string) (bool, error) {
	result := repo.database.WithContext(ctx).Model(&models.DDay{}).
		Where("id = ? AND reminded_on <> ?", ddayID, today).
		Update("reminded_on", today)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
