package models

import "time"

type Memory struct {
	ID        uint      `gorm:"primaryKey"`
	CoupleID  uint      `gorm:"not null;index"`
	CreatedBy uint      `gorm:"not null"`
	Title     string    `gorm:"not null"`
	Content   string    `gorm:"not null;default:''"`
	Day       string    `gorm:"not null;size:10;index"`
	CreatedAt time.Time `gorm:"not null"`
}
