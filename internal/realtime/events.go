package realtime

import (
	"encoding/json"
	"time"

	"github.com/terraincognita07/tandem/internal/models"
)

// Outbound events.
const (
	EventPresenceStatus         = "presenceStatus"
	EventNotificationCount      = "notificationCount"
	EventNewNotification        = "newNotification"
	EventNotificationsList      = "notificationsList"
	EventNotificationMarkedRead = "notificationMarkedRead"
	EventJoinedCoupleChannel    = "joinedCoupleChannel"
	EventLeftCoupleChannel      = "leftCoupleChannel"
	EventAnswerCompleted        = "answerCompleted"
	EventPong                   = "pong"
	EventError                  = "error"
)

// Inbound events.
const (
	EventMarkNotificationRead = "markNotificationRead"
	EventListNotifications    = "listNotifications"
	EventJoinCoupleChannel    = "joinCoupleChannel"
	EventLeaveCoupleChannel   = "leaveCoupleChannel"
	EventPing                 = "ping"
)

type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type InboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type PresencePayload struct {
	UserID uint `json:"userId"`
	Online bool `json:"online"`
}

type CountPayload struct {
	Count int64 `json:"count"`
}

type NotificationsListPayload struct {
	Notifications []map[string]any `json:"notifications"`
	UnreadCount   int64            `json:"unreadCount"`
}

type MarkReadRequest struct {
	ID uint `json:"id"`
}

type MarkedReadPayload struct {
	ID      uint `json:"id"`
	Success bool `json:"success"`
}

type CoupleChannelPayload struct {
	CoupleID uint `json:"coupleId"`
}

type AnswerCompletedPayload struct {
	QuestionID uint   `json:"questionId"`
	Date       string `json:"date"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NotificationPayload flattens a ledger row for the wire. Extra keys are
// merged in but never replace the ledger fields.
func NotificationPayload(notification models.Notification) map[string]any {
	payload := make(map[string]any, 10+len(notification.Extra))
	for key, value := range notification.Extra {
		payload[key] = value
	}
	payload["id"] = notification.ID
	payload["type"] = notification.Type
	payload["title"] = notification.Title
	payload["content"] = notification.Content
	payload["icon"] = models.NotificationIcon(notification.Type)
	payload["color"] = models.NotificationColor(notification.Type)
	payload["is_read"] = notification.IsRead
	payload["created_at"] = notification.CreatedAt.UTC().Format(time.RFC3339)
	return payload
}

func presenceEnvelope(userID uint, online bool) Envelope {
	return Envelope{Event: EventPresenceStatus, Data: PresencePayload{UserID: userID, Online: online}}
}

func countEnvelope(count int64) Envelope {
	return Envelope{Event: EventNotificationCount, Data: CountPayload{Count: count}}
}

func errorEnvelope(message string) Envelope {
	return Envelope{Event: EventError, Data: ErrorPayload{Message: message}}
}
