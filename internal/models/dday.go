package models

import "time"

// DDay is a date a couple counts down to. TargetDay is a YYYY-MM-DD key;
// RemindedOn holds the day key of the last reminder sent for it.
type DDay struct {
	ID          uint      `gorm:"primaryKey"`
	CoupleID    uint      `gorm:"not null;index"`
	CreatedBy   uint      `gorm:"not null"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"not null;default:''"`
	TargetDay   string    `gorm:"not null;size:10;index"`
	RemindedOn  string    `gorm:"not null;size:10;default:''"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (DDay) TableName() string {
	return "ddays"
}
