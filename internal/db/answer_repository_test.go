package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/terraincognita07/tandem/internal/models"
	"gorm.io/gorm"
)

func TestAnswerRepositoryUpsertCreatesThenUpdates(t *testing.T) {
	database := openTestDatabase(t)
	repo := NewAnswerRepository(database)
	ctx := context.Background()

	user := createTestUser(t, database, "answer@example.com")
	question := createTestQuestion(t, database, "What made you smile today?")

	createdAt := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	first := models.Answer{
		QuestionID: question.ID,
		UserID:     user.ID,
		Day:        "2026-03-01",
		AnswerText: "The morning coffee",
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	created, err := repo.Upsert(ctx, &first)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created {
		t.Fatal("expected first upsert to create")
	}

	updatedAt := createdAt.Add(time.Hour)
	second := models.Answer{
		QuestionID: question.ID,
		UserID:     user.ID,
		Day:        "2026-03-01",
		AnswerText: "Actually, the sunset",
		CreatedAt:  updatedAt,
		UpdatedAt:  updatedAt,
	}
	created, err = repo.Upsert(ctx, &second)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Fatal("expected second upsert to update")
	}
	if second.ID != first.ID {
		t.Fatalf("expected same row id %d, got %d", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected created_at to be preserved, got %s", second.CreatedAt)
	}

	stored, found, err := repo.FindByQuestionUserDay(ctx, question.ID, user.ID, "2026-03-01")
	if err != nil || !found {
		t.Fatalf("find answer: found=%t err=%v", found, err)
	}
	if stored.AnswerText != "Actually, the sunset" {
		t.Fatalf("expected updated text, got %q", stored.AnswerText)
	}

	var rows int64
	if err := database.Model(&models.Answer{}).Count(&rows).Error; err != nil {
		t.Fatalf("count answers: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected one stored answer, got %d", rows)
	}
}

func TestAnswerRepositoryCountShared(t *testing.T) {
	database := openTestDatabase(t)
	repo := NewAnswerRepository(database)
	ctx := context.Background()

	first := createTestUser(t, database, "first@example.com")
	second := createTestUser(t, database, "second@example.com")
	questionA := createTestQuestion(t, database, "Question A for shared count")
	questionB := createTestQuestion(t, database, "Question B for shared count")

	now := time.Now().UTC()
	for _, answer := range []models.Answer{
		{QuestionID: questionA.ID, UserID: first.ID, Day: "2026-03-01", AnswerText: "first A"},
		{QuestionID: questionA.ID, UserID: second.ID, Day: "2026-03-01", AnswerText: "second A"},
		{QuestionID: questionB.ID, UserID: first.ID, Day: "2026-03-02", AnswerText: "first B"},
		{QuestionID: questionA.ID, UserID: second.ID, Day: "2026-03-03", AnswerText: "second A later"},
	} {
		answer.CreatedAt = now
		answer.UpdatedAt = now
		if _, err := repo.Upsert(ctx, &answer); err != nil {
			t.Fatalf("seed answer: %v", err)
		}
	}

	shared, err := repo.CountShared(ctx, first.ID, second.ID)
	if err != nil {
		t.Fatalf("count shared: %v", err)
	}
	if shared != 1 {
		t.Fatalf("expected 1 shared answer, got %d", shared)
	}

	total, err := repo.CountByUser(ctx, first.ID, "2026-03-02")
	if err != nil {
		t.Fatalf("count by user: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 answer since 2026-03-02, got %d", total)
	}

	history, count, err := repo.ListByUser(ctx, first.ID, models.AnswerQuery{Limit: 1})
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if count != 2 || len(history) != 1 || history[0].Day != "2026-03-02" {
		t.Fatalf("unexpected history page: total=%d rows=%#v", count, history)
	}
}

func TestAssignmentRepositoryRejectsSecondAssignmentForDay(t *testing.T) {
	database := openTestDatabase(t)
	repo := NewAssignmentRepository(database)
	ctx := context.Background()

	first := createTestUser(t, database, "a1@example.com")
	second := createTestUser(t, database, "a2@example.com")
	couple := createTestCouple(t, database, first, second)
	questionA := createTestQuestion(t, database, "Assignment question A")
	questionB := createTestQuestion(t, database, "Assignment question B")

	original := models.DailyAssignment{CoupleID: couple.ID, QuestionID: questionA.ID, Day: "2026-03-01", CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, &original); err != nil {
		t.Fatalf("create assignment: %v", err)
	}

	duplicate := models.DailyAssignment{CoupleID: couple.ID, QuestionID: questionB.ID, Day: "2026-03-01", CreatedAt: time.Now().UTC()}
	err := repo.Create(ctx, &duplicate)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicated key error, got %v", err)
	}

	stored, found, err := repo.FindByCoupleAndDay(ctx, couple.ID, "2026-03-01")
	if err != nil || !found {
		t.Fatalf("find assignment: found=%t err=%v", found, err)
	}
	if stored.QuestionID != questionA.ID {
		t.Fatalf("expected original question %d to survive, got %d", questionA.ID, stored.QuestionID)
	}
}

func TestQuestionRepositoryInsertMissingIsIdempotent(t *testing.T) {
	database := openTestDatabase(t)
	repo := NewQuestionRepository(database)
	ctx := context.Background()

	catalog := models.DefaultQuestionCatalog()
	inserted, err := repo.InsertMissing(ctx, catalog)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if inserted != int64(len(catalog)) {
		t.Fatalf("expected %d inserted, got %d", len(catalog), inserted)
	}

	inserted, err = repo.InsertMissing(ctx, models.DefaultQuestionCatalog())
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("expected nothing inserted on second pass, got %d", inserted)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != int64(len(catalog)) {
		t.Fatalf("expected %d stored questions, got %d", len(catalog), count)
	}

	ids, err := repo.ListIDs(ctx)
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(ids) != len(catalog) {
		t.Fatalf("expected %d ids, got %d", len(catalog), len(ids))
	}
	for index := 1; index < len(ids); index++ {
		if ids[index] <= ids[index-1] {
			t.Fatalf("expected ascending ids, got %v", ids)
		}
	}

	deep, err := repo.List(ctx, models.CategoryDeep, models.DifficultyHard)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(deep) != 4 {
		t.Fatalf("expected 4 hard deep questions, got %d", len(deep))
	}
}
