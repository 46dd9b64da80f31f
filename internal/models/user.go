package models

import "time"

type User struct {
	ID             uint      `gorm:"primaryKey"`
	Email          string    `gorm:"uniqueIndex;not null"`
	PasswordHash   string    `gorm:"not null"`
	DisplayName    string    `gorm:"not null;default:''"`
	Language       string    `gorm:"not null;default:en"`
	TelegramChatID int64     `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"not null"`
}

func (user User) Name() string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.Email
}
