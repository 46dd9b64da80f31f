package services

import (
	"context"
	"strings"

	"github.com/terraincognita07/tandem/internal/models"
)

type QuestionRepository interface {
	ListIDs(ctx context.Context) ([]uint, error)
	FindByID(ctx context.Context, questionID uint) (models.Question, error)
	FindByIDs(ctx context.Context, questionIDs []uint) ([]models.Question, error)
	List(ctx context.Context, category string, difficulty string) ([]models.Question, error)
	InsertMissing(ctx context.Context, questions []models.Question) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type QuestionFilter struct {
	Category   string
	Difficulty string
}

type QuestionService struct {
	questions QuestionRepository
}

func NewQuestionService(questions QuestionRepository) *QuestionService {
	return &QuestionService{questions: questions}
}

// EnsureCatalog inserts the built-in questions that are not stored yet.
func (service *QuestionService) EnsureCatalog(ctx context.Context) (int64, error) {
	return service.questions.InsertMissing(ctx, models.DefaultQuestionCatalog())
}

func (service *QuestionService) CatalogSize(ctx context.Context) (int64, error) {
	return service.questions.Count(ctx)
}

// List ignores unknown category or difficulty values instead of failing.
func (service *QuestionService) List(ctx context.Context, filter QuestionFilter) ([]models.Question, error) {
	category := strings.ToLower(strings.TrimSpace(filter.Category))
	if !models.IsKnownCategory(category) {
		category = ""
	}
	difficulty := strings.ToLower(strings.TrimSpace(filter.Difficulty))
	if !models.IsKnownDifficulty(difficulty) {
		difficulty = ""
	}
	return service.questions.List(ctx, category, difficulty)
}

func (service *QuestionService) Get(ctx context.Context, questionID uint) (models.Question, error) {
	question, err := service.questions.FindByID(ctx, questionID)
	if err != nil {
		return models.Question{}, translateLookupError(err)
	}
	return question, nil
}

func (service *QuestionService) Categories() []models.CategoryInfo {
	return models.QuestionCategories()
}

func (service *QuestionService) Difficulties() []models.DifficultyInfo {
	return models.QuestionDifficulties()
}
