package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/terraincognita07/tandem/internal/logging"
	"github.com/terraincognita07/tandem/internal/models"
	"go.uber.org/zap"
)

const (
	notificationPreviewLength = 50
	offlineDeliveryTimeout    = 10 * time.Second
	recipientLockStripes      = 64
)

// NotificationPublisher pushes a stored notification to the recipient's live
// sessions and returns how many local sessions accepted it. A negative
// unreadCount means the count could not be read. Online reports sessions on
// any instance, including ones reached only through a relay.
type NotificationPublisher interface {
	PublishNotification(notification models.Notification, unreadCount int64) int
	Online(userID uint) bool
}

type OfflineDelivery interface {
	Deliver(ctx context.Context, recipient models.User, notification models.Notification) error
}

type Translator interface {
	Translate(language string, key string) string
	Translatef(language string, key string, args ...any) string
}

type NotifierUserLookup interface {
	FindByID(ctx context.Context, userID uint) (models.User, error)
}

// Notifier persists a notification and then fans it out. Work for one
// recipient is serialized so live delivery order matches ledger order.
type Notifier struct {
	ledger     *NotificationService
	users      NotifierUserLookup
	translator Translator
	logger     *zap.Logger

	mu        sync.RWMutex
	publisher NotificationPublisher
	offline   OfflineDelivery

	recipientLocks [recipientLockStripes]sync.Mutex
}

func NewNotifier(ledger *NotificationService, users NotifierUserLookup, translator Translator, logger *zap.Logger) *Notifier {
	return &Notifier{
		ledger:     ledger,
		users:      users,
		translator: translator,
		logger:     logging.OrNop(logger).Named("notifier"),
	}
}

func (notifier *Notifier) UsePublisher(publisher NotificationPublisher) {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.publisher = publisher
}

func (notifier *Notifier) UseOfflineDelivery(offline OfflineDelivery) {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.offline = offline
}

func (notifier *Notifier) sinks() (NotificationPublisher, OfflineDelivery) {
	notifier.mu.RLock()
	defer notifier.mu.RUnlock()
	return notifier.publisher, notifier.offline
}

// Send stores the notification and pushes it. A storage failure is returned
// and nothing is pushed; push failures never undo the stored row.
func (notifier *Notifier) Send(ctx context.Context, input NotificationInput) (models.Notification, error) {
	lock := &notifier.recipientLocks[input.RecipientID%recipientLockStripes]
	lock.Lock()
	defer lock.Unlock()

	notification, err := notifier.ledger.Create(ctx, input)
	if err != nil {
		return models.Notification{}, err
	}

	unread, err := notifier.ledger.UnreadCount(ctx, input.RecipientID)
	if err != nil {
		notifier.logger.Warn("unread count unavailable after create",
			zap.Uint("user_id", input.RecipientID),
			zap.Error(err),
		)
		unread = -1
	}

	publisher, offline := notifier.sinks()
	live := false
	if publisher != nil {
		live = publisher.PublishNotification(notification, unread) > 0 || publisher.Online(input.RecipientID)
	}
	if !live && offline != nil {
		go notifier.deliverOffline(context.WithoutCancel(ctx), offline, notification)
	}
	return notification, nil
}

func (notifier *Notifier) deliverOffline(ctx context.Context, offline OfflineDelivery, notification models.Notification) {
	ctx, cancel := context.WithTimeout(ctx, offlineDeliveryTimeout)
	defer cancel()

	recipient, err := notifier.users.FindByID(ctx, notification.UserID)
	if err != nil {
		notifier.logger.Warn("offline delivery skipped: recipient lookup failed",
			zap.Uint("user_id", notification.UserID),
			zap.Error(err),
		)
		return
	}
	err = offline.Deliver(ctx, recipient, notification)
	if errors.Is(err, ErrOfflineUnreachable) {
		notifier.logger.Debug("offline delivery skipped: no channel",
			zap.Uint("user_id", notification.UserID),
			zap.Uint("notification_id", notification.ID),
		)
		return
	}
	if err != nil {
		notifier.logger.Warn("offline delivery failed",
			zap.Uint("user_id", notification.UserID),
			zap.Uint("notification_id", notification.ID),
			zap.Error(err),
		)
	}
}

func (notifier *Notifier) recipientLanguage(ctx context.Context, recipientID uint) string {
	recipient, err := notifier.users.FindByID(ctx, recipientID)
	if err != nil {
		return ""
	}
	return recipient.Language
}

func (notifier *Notifier) NotifyNewAnswer(ctx context.Context, actor models.User, recipientID uint, question models.Question, day string) error {
	language := notifier.recipientLanguage(ctx, recipientID)
	_, err := notifier.Send(ctx, NotificationInput{
		RecipientID: recipientID,
		Type:        models.NotificationNewAnswer,
		Title:       notifier.translator.Translatef(language, "notification.new_answer.title", shortName(actor)),
		Content:     previewText(question.Text, notificationPreviewLength),
		Extra: map[string]any{
			"question_id": question.ID,
			"date":        day,
		},
	})
	return err
}

func (notifier *Notifier) NotifyMoodUpdate(ctx context.Context, actor models.User, recipientID uint, level int) error {
	language := notifier.recipientLanguage(ctx, recipientID)
	moodLabel := notifier.translator.Translate(language, fmt.Sprintf("mood.level.%d", level))
	_, err := notifier.Send(ctx, NotificationInput{
		RecipientID: recipientID,
		Type:        models.NotificationMoodUpdate,
		Title:       notifier.translator.Translatef(language, "notification.mood_update.title", shortName(actor)),
		Content:     notifier.translator.Translatef(language, "notification.mood_update.content", models.MoodEmoji(level)+" "+moodLabel),
		Extra: map[string]any{
			"mood_level": level,
			"mood_emoji": models.MoodEmoji(level),
		},
	})
	return err
}

func (notifier *Notifier) NotifyNewMemory(ctx context.Context, actor models.User, recipientID uint, memory models.Memory) error {
	language := notifier.recipientLanguage(ctx, recipientID)
	_, err := notifier.Send(ctx, NotificationInput{
		RecipientID: recipientID,
		Type:        models.NotificationNewMemory,
		Title:       notifier.translator.Translatef(language, "notification.new_memory.title", shortName(actor)),
		Content:     previewText(memory.Title, notificationPreviewLength),
		Extra: map[string]any{
			"memory_id": memory.ID,
			"date":      memory.Day,
		},
	})
	return err
}

func (notifier *Notifier) NotifyDDayReminder(ctx context.Context, recipientID uint, dday models.DDay, daysRemaining int) error {
	language := notifier.recipientLanguage(ctx, recipientID)
	_, err := notifier.Send(ctx, NotificationInput{
		RecipientID: recipientID,
		Type:        models.NotificationDDayReminder,
		Title:       notifier.translator.Translatef(language, "notification.dday_reminder.title", previewText(dday.Title, 40)),
		Content:     notifier.translator.Translatef(language, "notification.dday_reminder.content", DDayStatus(daysRemaining), dday.TargetDay),
		Extra: map[string]any{
			"dday_id":        dday.ID,
			"date":           dday.TargetDay,
			"days_remaining": daysRemaining,
		},
	})
	return err
}

func (notifier *Notifier) PartnerConnected(ctx context.Context, recipientID uint, partner models.User) error {
	language := notifier.recipientLanguage(ctx, recipientID)
	_, err := notifier.Send(ctx, NotificationInput{
		RecipientID: recipientID,
		Type:        models.NotificationPartnerConnected,
		Title:       notifier.translator.Translatef(language, "notification.partner_connected.title", shortName(partner)),
		Content:     notifier.translator.Translate(language, "notification.partner_connected.content"),
		Extra:       map[string]any{"partner_id": partner.ID},
	})
	return err
}

func (notifier *Notifier) PartnerDisconnected(ctx context.Context, recipientID uint, partner models.User) error {
	language := notifier.recipientLanguage(ctx, recipientID)
	_, err := notifier.Send(ctx, NotificationInput{
		RecipientID: recipientID,
		Type:        models.NotificationPartnerDisconnected,
		Title:       notifier.translator.Translatef(language, "notification.partner_disconnected.title", shortName(partner)),
		Content:     notifier.translator.Translate(language, "notification.partner_disconnected.content"),
		Extra:       map[string]any{"partner_id": partner.ID},
	})
	return err
}

func previewText(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit]) + "..."
}

func shortName(user models.User) string {
	return previewText(user.Name(), 40)
}
