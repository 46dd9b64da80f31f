package models

import "time"

const (
	MoodLevelMin = 1
	MoodLevelMax = 5
)

type MoodEntry struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:uidx_mood_user_day"`
	Level     int       `gorm:"not null"`
	Note      string    `gorm:"not null;default:''"`
	Day       string    `gorm:"not null;size:10;uniqueIndex:uidx_mood_user_day"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func MoodEmoji(level int) string {
	switch level {
	case 1:
		return "😢"
	case 2:
		return "😞"
	case 3:
		return "😐"
	case 4:
		return "😊"
	case 5:
		return "😍"
	default:
		return "😐"
	}
}
