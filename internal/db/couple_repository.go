package db

import (
	"context"
	"errors"
	"time"

	"github.com/terraincognita07/tandem/internal/models"
	"gorm.io/gorm"
)

type CoupleRepository struct {
	database *gorm.DB
}

func NewCoupleRepository(database *gorm.DB) *CoupleRepository {
	return &CoupleRepository{database: database}
}

// FindByMember returns the paired couple of the user, or else the user's
// pending invite.
func (repo *CoupleRepository) FindByMember(ctx context.Context, userID uint) (models.Couple, bool, error) {
	var couple models.Couple
	result := repo.database.WithContext(ctx).
		Where("id = (SELECT couple_id FROM couple_members WHERE user_id = ?)", userID).
		Limit(1).
		Find(&couple)
	if result.Error != nil {
		return models.Couple{}, false, result.Error
	}
	if result.RowsAffected > 0 {
		return couple, true, nil
	}

	result = repo.database.WithContext(ctx).
		Where("user1_id = ? AND user2_id IS NULL", userID).
		Order("id DESC").
		Limit(1).
		Find(&couple)
	if result.Error != nil {
		return models.Couple{}, false, result.Error
	}
	return couple, result.RowsAffected > 0, nil
}

func (repo *CoupleRepository) FindPendingByInviteCode(ctx context.Context, code string) (models.Couple, bool, error) {
	var couple models.Couple
	result := repo.database.WithContext(ctx).
		Where("invite_code = ? AND user2_id IS NULL", code).
		Limit(1).
		Find(&couple)
	if result.Error != nil {
		return models.Couple{}, false, result.Error
	}
	return couple, result.RowsAffected > 0, nil
}

func (repo *CoupleRepository) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	var matched int64
	if err := repo.database.WithContext(ctx).Model(&models.Couple{}).
		Where("invite_code = ?", code).
		Count(&matched).Error; err != nil {
		return false, err
	}
	return matched > 0, nil
}

// Create stores a couple. A couple created already paired also records both
// memberships.
func (repo *CoupleRepository) Create(ctx context.Context, couple *models.Couple) error {
	err := repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(couple).Error; err != nil {
			return err
		}
		if !couple.IsPaired() {
			return nil
		}
		joinedAt := couple.CreatedAt
		if couple.ConnectedAt != nil {
			joinedAt = *couple.ConnectedAt
		}
		return addMembers(tx, couple.ID, joinedAt, couple.User1ID, *couple.User2ID)
	})
	return normalizeWriteError(err)
}

// Pair claims a pending couple for userID. It reports false when another
// user claimed the invite first, and gorm.ErrDuplicatedKey when either user
// already belongs to a couple; nothing is written in both cases.
func (repo *CoupleRepository) Pair(ctx context.Context, coupleID uint, userID uint, connectedAt time.Time) (bool, error) {
	claimed := false
	err := repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Couple{}).
			Where("id = ? AND user2_id IS NULL", coupleID).
			Updates(map[string]any{
				"user2_id":     userID,
				"connected_at": connectedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return nil
		}

		var couple models.Couple
		if err := tx.First(&couple, coupleID).Error; err != nil {
			return err
		}
		if err := addMembers(tx, coupleID, connectedAt, couple.User1ID, userID); err != nil {
			return err
		}
		claimed = true
		return nil
	})
	if err != nil {
		return false, normalizeWriteError(err)
	}
	return claimed, nil
}

func addMembers(tx *gorm.DB, coupleID uint, joinedAt time.Time, userIDs ...uint) error {
	members := make([]models.CoupleMember, 0, len(userIDs))
	for _, userID := range userIDs {
		members = append(members, models.CoupleMember{UserID: userID, CoupleID: coupleID, JoinedAt: joinedAt})
	}
	return normalizeWriteError(tx.Create(&members).Error)
}

func (repo *CoupleRepository) Delete(ctx context.Context, coupleID uint) error {
	return repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("couple_id = ?", coupleID).Delete(&models.CoupleMember{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Couple{}, coupleID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (repo *CoupleRepository) DeletePendingByOwner(ctx context.Context, userID uint) error {
	err := repo.database.WithContext(ctx).
		Where("user1_id = ? AND user2_id IS NULL", userID).
		Delete(&models.Couple{}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
