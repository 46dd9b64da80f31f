package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/terraincognita07/tandem/internal/models"
	"gorm.io/gorm"
)

type AssignmentRepository interface {
	FindByCoupleAndDay(ctx context.Context, coupleID uint, day string) (models.DailyAssignment, bool, error)
	Create(ctx context.Context, assignment *models.DailyAssignment) error
}

type QuestionPool interface {
	ListIDs(ctx context.Context) ([]uint, error)
	FindByID(ctx context.Context, questionID uint) (models.Question, error)
}

type AssignedQuestion struct {
	Assignment models.DailyAssignment
	Question   models.Question
	Created    bool
}

type AssignmentService struct {
	assignments AssignmentRepository
	questions   QuestionPool
	now         func() time.Time
}

func NewAssignmentService(assignments AssignmentRepository, questions QuestionPool) *AssignmentService {
	return &AssignmentService{assignments: assignments, questions: questions, now: time.Now}
}

// SelectQuestionIndex maps (coupleID, day) onto [0, poolSize) with FNV-1a so
// every process picks the same question for the same couple and day.
func SelectQuestionIndex(coupleID uint, day string, poolSize int) int {
	if poolSize <= 0 {
		return -1
	}
	hasher := fnv.New64a()
	_, _ = fmt.Fprintf(hasher, "%d-%s", coupleID, day)
	return int(hasher.Sum64() % uint64(poolSize))
}

// GetOrCreate returns the couple's question for day. Concurrent first calls
// converge on one stored assignment: a losing insert re-reads the winner.
func (service *AssignmentService) GetOrCreate(ctx context.Context, coupleID uint, day string) (AssignedQuestion, error) {
	if coupleID == 0 {
		return AssignedQuestion{}, invalidField("couple_id", "is required")
	}
	day, err := ParseDayKey(day, "date")
	if err != nil {
		return AssignedQuestion{}, err
	}

	existing, found, err := service.assignments.FindByCoupleAndDay(ctx, coupleID, day)
	if err != nil {
		return AssignedQuestion{}, err
	}
	if found {
		return service.withQuestion(ctx, existing, false)
	}

	pool, err := service.questions.ListIDs(ctx)
	if err != nil {
		return AssignedQuestion{}, err
	}
	if len(pool) == 0 {
		return AssignedQuestion{}, ErrNoQuestionAvailable
	}

	assignment := models.DailyAssignment{
		CoupleID:   coupleID,
		QuestionID: pool[SelectQuestionIndex(coupleID, day, len(pool))],
		Day:        day,
		CreatedAt:  service.now().UTC(),
	}
	err = service.assignments.Create(ctx, &assignment)
	if err == nil {
		return service.withQuestion(ctx, assignment, true)
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return AssignedQuestion{}, err
	}

	winner, found, err := service.assignments.FindByCoupleAndDay(ctx, coupleID, day)
	if err != nil {
		return AssignedQuestion{}, err
	}
	if !found {
		return AssignedQuestion{}, fmt.Errorf("assignment for couple %d on %s: %w", coupleID, day, ErrConflict)
	}
	return service.withQuestion(ctx, winner, false)
}

func (service *AssignmentService) withQuestion(ctx context.Context, assignment models.DailyAssignment, created bool) (AssignedQuestion, error) {
	question, err := service.questions.FindByID(ctx, assignment.QuestionID)
	if err != nil {
		return AssignedQuestion{}, translateLookupError(err)
	}
	return AssignedQuestion{Assignment: assignment, Question: question, Created: created}, nil
}
