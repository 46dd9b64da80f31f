package db

import (
	"context"
	"time"

	"github.com/terraincognita07/tandem/internal/models"
	"gorm.io/gorm"
)

const sweepBatchSize = 500

type NotificationRepository struct {
	database *gorm.DB
}

func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{database: database}
}

func (repo *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return repo.database.WithContext(ctx).Create(notification).Error
}

func (repo *NotificationRepository) List(ctx context.Context, ownerID uint, filter models.NotificationQuery) ([]models.Notification, int64, error) {
	scoped := func() *gorm.DB {
		query := repo.database.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", ownerID)
		if filter.Type != "" {
			query = query.Where("type = ?", filter.Type)
		}
		if !filter.IncludeRead {
			query = query.Where("is_read = ?", false)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	notifications := make([]models.Notification, 0)
	paged := scoped().Order("created_at DESC").Order("id DESC")
	if filter.Limit > 0 {
		paged = paged.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := paged.Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (repo *NotificationRepository) CountUnread(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	if err := repo.database.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", ownerID, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindForOwner treats a notification owned by someone else as missing.
func (repo *NotificationRepository) FindForOwner(ctx context.Context, notificationID uint, ownerID uint) (models.Notification, bool, error) {
	var notification models.Notification
	result := repo.database.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, ownerID).
		Limit(1).
		Find(&notification)
	if result.Error != nil {
		return models.Notification{}, false, result.Error
	}
	return notification, result.RowsAffected > 0, nil
}

func (repo *NotificationRepository) MarkRead(ctx context.Context, notificationID uint, ownerID uint, readAt time.Time) (int64, error) {
	result := repo.database.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", notificationID, ownerID, false).
		Updates(map[string]any{"is_read": true, "read_at": readAt})
	return result.RowsAffected, result.Error
}

func (repo *NotificationRepository) MarkAllRead(ctx context.Context, ownerID uint, readAt time.Time) (int64, error) {
	result := repo.database.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", ownerID, false).
		Updates(map[string]any{"is_read": true, "read_at": readAt})
	return result.RowsAffected, result.Error
}

func (repo *NotificationRepository) DeleteRead(ctx context.Context, ownerID uint) (int64, error) {
	result := repo.database.WithContext(ctx).
		Where("user_id = ? AND is_read = ?", ownerID, true).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

func (repo *NotificationRepository) DeleteForOwner(ctx context.Context, notificationID uint, ownerID uint) (int64, error) {
	result := repo.database.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, ownerID).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

func (repo *NotificationRepository) DistinctTypes(ctx context.Context, ownerID uint) ([]string, error) {
	types := make([]string, 0)
	if err := repo.database.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ?", ownerID).
		Distinct("type").
		Order("type ASC").
		Pluck("type", &types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

// DeleteReadOlderThan removes read notifications created before cutoff in
// batches so a large backlog never holds one long write lock.
func (repo *NotificationRepository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		batch := repo.database.WithContext(ctx).Model(&models.Notification{}).
			Select("id").
			Where("is_read = ? AND created_at < ?", true, cutoff).
			Limit(sweepBatchSize)
		result := repo.database.WithContext(ctx).
			Where("id IN (?)", batch).
			Delete(&models.Notification{})
		if result.Error != nil {
			return total, result.Error
		}
		total += result.RowsAffected
		if result.RowsAffected < sweepBatchSize {
			return total, nil
		}
	}
}
