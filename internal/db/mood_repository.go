package db

import (
	"context"

	"github.com/terraincognita07/tandem/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MoodRepository struct {
	database *gorm.DB
}

func NewMoodRepository(database *gorm.DB) *MoodRepository {
	return &MoodRepository{database: database}
}

// Upsert reports true when the entry is the first one for the user and day.
func (repo *MoodRepository) Upsert(ctx context.Context, entry *models.MoodEntry) (bool, error) {
	created := false
	err := repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
			DoNothing: true,
		}).Create(entry)
		if inserted.Error != nil {
			return normalizeWriteError(inserted.Error)
		}
		if inserted.RowsAffected == 1 {
			created = true
			return nil
		}

		if err := tx.Model(&models.MoodEntry{}).
			Where("user_id = ? AND day = ?", entry.UserID, entry.Day).
			Updates(map[string]any{
				"level":      entry.Level,
				"note":       entry.Note,
				"updated_at": entry.UpdatedAt,
			}).Error; err != nil {
			return err
		}

		var stored models.MoodEntry
		if err := tx.Where("user_id = ? AND day = ?", entry.UserID, entry.Day).First(&stored).Error; err != nil {
			return err
		}
		*entry = stored
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (repo *MoodRepository) ListByUserRange(ctx context.Context, userID uint, fromDay string, toDay string) ([]models.MoodEntry, error) {
	query := repo.database.WithContext(ctx).Where("user_id = ?", userID)
	if fromDay != "" {
		query = query.Where("day >= ?", fromDay)
	}
	if toDay != "" {
		query = query.Where("day <= ?", toDay)
	}

	entries := make([]models.MoodEntry, 0)
	if err := query.Order("day DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
