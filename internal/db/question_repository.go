package db

import (
	"context"

	"github.com/terraincognita07/tandem/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionRepository struct {
	database *gorm.DB
}

func NewQuestionRepository(database *gorm.DB) *QuestionRepository {
	return &QuestionRepository{database: database}
}

// ListIDs returns the pool in ascending id order so selection indexes agree
// across processes.
func (repo *QuestionRepository) ListIDs(ctx context.Context) ([]uint, error) {
	ids := make([]uint, 0)
	if err := repo.database.WithContext(ctx).Model(&models.Question{}).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (repo *QuestionRepository) FindByID(ctx context.Context, questionID uint) (models.Question, error) {
	var question models.Question
	if err := repo.database.WithContext(ctx).First(&question, questionID).Error; err != nil {
		return models.Question{}, err
	}
	return question, nil
}

func (repo *QuestionRepository) List(ctx context.Context, category string, difficulty string) ([]models.Question, error) {
	query := repo.database.WithContext(ctx).Model(&models.Question{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}

	questions := make([]models.Question, 0)
	if err := query.Order("id ASC").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (repo *QuestionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.database.WithContext(ctx).Model(&models.Question{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// InsertMissing adds the questions whose text is not stored yet and returns
// how many rows were written.
func (repo *QuestionRepository) InsertMissing(ctx context.Context, questions []models.Question) (int64, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	result := repo.database.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "text"}}, DoNothing: true}).
		Create(&questions)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (repo *QuestionRepository) FindByIDs(ctx context.Context, questionIDs []uint) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(questionIDs))
	if len(questionIDs) == 0 {
		return questions, nil
	}
	if err := repo.database.WithContext(ctx).Where("id IN ?", questionIDs).Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}
