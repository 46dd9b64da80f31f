package models

import "time"

const (
	CategoryDaily        = "daily"
	CategoryRelationship = "relationship"
	CategoryDreams       = "dreams"
	CategoryMemories     = "memories"
	CategoryFun          = "fun"
	CategoryDeep         = "deep"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

type Question struct {
	ID         uint   `gorm:"primaryKey"`
	Text       string `gorm:"uniqueIndex;not null"`
	Category   string `gorm:"not null;index"`
	Difficulty string `gorm:"not null"`
}

// DailyAssignment binds exactly one question to a couple for one calendar day.
type DailyAssignment struct {
	ID         uint      `gorm:"primaryKey"`
	CoupleID   uint      `gorm:"not null;uniqueIndex:uidx_assignment_couple_day"`
	QuestionID uint      `gorm:"not null"`
	Day        string    `gorm:"not null;size:10;uniqueIndex:uidx_assignment_couple_day"`
	CreatedAt  time.Time `gorm:"not null"`
}

type Answer struct {
	ID         uint      `gorm:"primaryKey"`
	QuestionID uint      `gorm:"not null;uniqueIndex:uidx_answer_question_user_day"`
	UserID     uint      `gorm:"not null;uniqueIndex:uidx_answer_question_user_day;index"`
	Day        string    `gorm:"not null;size:10;uniqueIndex:uidx_answer_question_user_day"`
	AnswerText string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

type CategoryInfo struct {
	Key         string
	Name        string
	Description string
	Emoji       string
}

type DifficultyInfo struct {
	Key         string
	Name        string
	Description string
	Color       string
}

func QuestionCategories() []CategoryInfo {
	return []CategoryInfo{
		{Key: CategoryDaily, Name: "Daily life & hobbies", Description: "Light questions about everyday life and hobbies", Emoji: "☀️"},
		{Key: CategoryRelationship, Name: "Relationship & love", Description: "Questions about each other and your relationship", Emoji: "💕"},
		{Key: CategoryDreams, Name: "Dreams & goals", Description: "Questions about future dreams and goals", Emoji: "🌟"},
		{Key: CategoryMemories, Name: "Memories & experiences", Description: "Questions about past memories and experiences", Emoji: "📸"},
		{Key: CategoryFun, Name: "Just for fun", Description: "Imaginative questions to spark the conversation", Emoji: "🎭"},
		{Key: CategoryDeep, Name: "Deep talk", Description: "Reflective questions about life and philosophy", Emoji: "🤔"},
	}
}

func QuestionDifficulties() []DifficultyInfo {
	return []DifficultyInfo{
		{Key: DifficultyEasy, Name: "Easy", Description: "Answer with a light heart", Color: "#28A745"},
		{Key: DifficultyMedium, Name: "Medium", Description: "Needs a moment of thought", Color: "#FFC107"},
		{Key: DifficultyHard, Name: "Hard", Description: "Calls for deeper reflection", Color: "#DC3545"},
	}
}

func IsKnownCategory(category string) bool {
	for _, info := range QuestionCategories() {
		if info.Key == category {
			return true
		}
	}
	return false
}

func IsKnownDifficulty(difficulty string) bool {
	for _, info := range QuestionDifficulties() {
		if info.Key == difficulty {
			return true
		}
	}
	return false
}
