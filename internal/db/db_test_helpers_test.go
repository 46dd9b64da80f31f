package db

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/terraincognita07/tandem/internal/models"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := OpenSQLite(filepath.Join(t.TempDir(), "tandem-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(database)
	})
	return database
}

func createTestUser(t *testing.T, database *gorm.DB, email string) models.User {
	t.Helper()

	user := models.User{
		Email:        email,
		PasswordHash: "hash",
		DisplayName:  email,
		Language:     "en",
		CreatedAt:    time.Now().UTC(),
	}
	if err := NewUserRepository(database).Create(context.Background(), &user); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func createTestCouple(t *testing.T, database *gorm.DB, first models.User, second models.User) models.Couple {
	t.Helper()

	now := time.Now().UTC()
	partnerID := second.ID
	couple := models.Couple{
		User1ID:     first.ID,
		User2ID:     &partnerID,
		InviteCode:  fmt.Sprintf("C%05d", first.ID),
		ConnectedAt: &now,
		CreatedAt:   now,
	}
	if err := NewCoupleRepository(database).Create(context.Background(), &couple); err != nil {
		t.Fatalf("create couple: %v", err)
	}
	return couple
}

func createTestQuestion(t *testing.T, database *gorm.DB, text string) models.Question {
	t.Helper()

	question := models.Question{Text: text, Category: models.CategoryDaily, Difficulty: models.DifficultyEasy}
	if err := database.Create(&question).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	return question
}
