package db

import (
	"context"

	"github.com/terraincognita07/tandem/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository struct {
	database *gorm.DB
}

func NewAnswerRepository(database *gorm.DB) *AnswerRepository {
	return &AnswerRepository{database: database}
}

var answerKeyColumns = []clause.Column{{Name: "question_id"}, {Name: "user_id"}, {Name: "day"}}

// Upsert stores the answer keyed by (question, user, day) in one transaction.
// It reports true when a new row was inserted and false when the existing
// row's text was replaced. The stored row is copied back into answer.
func (repo *AnswerRepository) Upsert(ctx context.Context, answer *models.Answer) (bool, error) {
	created := false
	err := repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted := tx.Clauses(clause.OnConflict{Columns: answerKeyColumns, DoNothing: true}).Create(answer)
		if inserted.Error != nil {
			return normalizeWriteError(inserted.Error)
		}
		if inserted.RowsAffected == 1 {
			created = true
			return nil
		}

		keyed := tx.Model(&models.Answer{}).
			Where("question_id = ? AND user_id = ? AND day = ?", answer.QuestionID, answer.UserID, answer.Day)
		if err := keyed.Updates(map[string]any{
			"answer_text": answer.AnswerText,
			"updated_at":  answer.UpdatedAt,
		}).Error; err != nil {
			return err
		}

		var stored models.Answer
		if err := tx.Where("question_id = ? AND user_id = ? AND day = ?", answer.QuestionID, answer.UserID, answer.Day).
			First(&stored).Error; err != nil {
			return err
		}
		*answer = stored
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (repo *AnswerRepository) FindByQuestionUserDay(ctx context.Context, questionID uint, userID uint, day string) (models.Answer, bool, error) {
	var answer models.Answer
	result := repo.database.WithContext(ctx).
		Where("question_id = ? AND user_id = ? AND day = ?", questionID, userID, day).
		Limit(1).
		Find(&answer)
	if result.Error != nil {
		return models.Answer{}, false, result.Error
	}
	return answer, result.RowsAffected > 0, nil
}

func (repo *AnswerRepository) ListByUser(ctx context.Context, userID uint, filter models.AnswerQuery) ([]models.Answer, int64, error) {
	scoped := func() *gorm.DB {
		query := repo.database.WithContext(ctx).Model(&models.Answer{}).Where("user_id = ?", userID)
		if filter.Category != "" {
			query = query.Where("question_id IN (?)",
				repo.database.Model(&models.Question{}).Select("id").Where("category = ?", filter.Category))
		}
		if filter.FromDay != "" {
			query = query.Where("day >= ?", filter.FromDay)
		}
		if filter.ToDay != "" {
			query = query.Where("day <= ?", filter.ToDay)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	answers := make([]models.Answer, 0)
	paged := scoped().Order("day DESC").Order("id DESC")
	if filter.Limit > 0 {
		paged = paged.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := paged.Find(&answers).Error; err != nil {
		return nil, 0, err
	}
	return answers, total, nil
}

func (repo *AnswerRepository) ListByUserAndQuestions(ctx context.Context, userID uint, questionIDs []uint) ([]models.Answer, error) {
	answers := make([]models.Answer, 0)
	if len(questionIDs) == 0 {
		return answers, nil
	}
	if err := repo.database.WithContext(ctx).
		Where("user_id = ? AND question_id IN ?", userID, questionIDs).
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (repo *AnswerRepository) CountByUser(ctx context.Context, userID uint, fromDay string) (int64, error) {
	query := repo.database.WithContext(ctx).Model(&models.Answer{}).Where("user_id = ?", userID)
	if fromDay != "" {
		query = query.Where("day >= ?", fromDay)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountShared counts the (question, day) pairs both users answered.
func (repo *AnswerRepository) CountShared(ctx context.Context, userID uint, partnerID uint) (int64, error) {
	var count int64
	err := repo.database.WithContext(ctx).
		Table("answers AS mine").
		Joins("JOIN answers AS theirs ON theirs.question_id = mine.question_id AND theirs.day = mine.day").
		Where("mine.user_id = ? AND theirs.user_id = ?", userID, partnerID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
