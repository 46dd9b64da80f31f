package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotificationMoodUpdate          = "mood_update"
	NotificationNewAnswer           = "new_answer"
	NotificationNewMemory           = "new_memory"
	NotificationEventReminder       = "event_reminder"
	NotificationDDayReminder        = "dday_reminder"
	NotificationPartnerConnected    = "partner_connected"
	NotificationPartnerDisconnected = "partner_disconnected"
)

type Notification struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	Type      string `gorm:"not null;index"`
	Title     string `gorm:"not null"`
	Content   string `gorm:"not null"`
	Extra     datatypes.JSONMap
	IsRead    bool `gorm:"not null;default:false;index"`
	ReadAt    *time.Time
	CreatedAt time.Time `gorm:"not null;index"`
}

func NotificationIcon(notificationType string) string {
	switch notificationType {
	case NotificationMoodUpdate:
		return "😊"
	case NotificationNewAnswer:
		return "💬"
	case NotificationEventReminder:
		return "📅"
	case NotificationDDayReminder:
		return "⏰"
	case NotificationNewMemory:
		return "📸"
	case NotificationPartnerConnected:
		return "💕"
	case NotificationPartnerDisconnected:
		return "💔"
	default:
		return "🔔"
	}
}

func NotificationColor(notificationType string) string {
	switch notificationType {
	case NotificationMoodUpdate:
		return "#F8BBD9"
	case NotificationNewAnswer:
		return "#B8E6E1"
	case NotificationEventReminder:
		return "#FFB5A7"
	case NotificationDDayReminder:
		return "#FFC107"
	case NotificationNewMemory:
		return "#28A745"
	case NotificationPartnerConnected:
		return "#DC3545"
	default:
		return "#6C757D"
	}
}
