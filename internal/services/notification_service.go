package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/terraincognita07/tandem/internal/models"
	"gorm.io/datatypes"
)

const (
	defaultNotificationPageSize = 20
	maxNotificationPageSize     = 100
	maxNotificationTitleLength  = 100
	RecentNotificationLimit     = 10
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, ownerID uint, query models.NotificationQuery) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, ownerID uint) (int64, error)
	FindForOwner(ctx context.Context, notificationID uint, ownerID uint) (models.Notification, bool, error)
	MarkRead(ctx context.Context, notificationID uint, ownerID uint, readAt time.Time) (int64, error)
	MarkAllRead(ctx context.Context, ownerID uint, readAt time.Time) (int64, error)
	DeleteRead(ctx context.Context, ownerID uint) (int64, error)
	DeleteForOwner(ctx context.Context, notificationID uint, ownerID uint) (int64, error)
	DistinctTypes(ctx context.Context, ownerID uint) ([]string, error)
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type NotificationInput struct {
	RecipientID uint
	Type        string
	Title       string
	Content     string
	Extra       map[string]any
}

type NotificationFilter struct {
	Type        string
	IncludeRead bool
	Page        int
	PerPage     int
}

type NotificationPage struct {
	Items   []models.Notification
	Total   int64
	Page    int
	PerPage int
}

func (page NotificationPage) Pages() int {
	if page.PerPage <= 0 {
		return 0
	}
	return int((page.Total + int64(page.PerPage) - 1) / int64(page.PerPage))
}

// NotificationService is the durable ledger. Every notification is written
// here before any live delivery is attempted.
type NotificationService struct {
	notifications NotificationRepository
	now           func() time.Time
}

func NewNotificationService(notifications NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications, now: time.Now}
}

func (service *NotificationService) Create(ctx context.Context, input NotificationInput) (models.Notification, error) {
	notification, err := buildNotification(input, service.now())
	if err != nil {
		return models.Notification{}, err
	}
	if err := service.notifications.Create(ctx, &notification); err != nil {
		return models.Notification{}, err
	}
	return notification, nil
}

func buildNotification(input NotificationInput, now time.Time) (models.Notification, error) {
	if input.RecipientID == 0 {
		return models.Notification{}, invalidField("recipient_id", "is required")
	}
	notificationType := strings.TrimSpace(input.Type)
	if notificationType == "" {
		return models.Notification{}, invalidField("type", "is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.Notification{}, invalidField("title", "is required")
	}
	if utf8.RuneCountInString(title) > maxNotificationTitleLength {
		return models.Notification{}, invalidField("title", "must be at most 100 characters")
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return models.Notification{}, invalidField("content", "is required")
	}

	notification := models.Notification{
		UserID:    input.RecipientID,
		Type:      notificationType,
		Title:     title,
		Content:   content,
		CreatedAt: now.UTC(),
	}
	if len(input.Extra) > 0 {
		notification.Extra = datatypes.JSONMap(input.Extra)
	}
	return notification, nil
}

func (service *NotificationService) List(ctx context.Context, ownerID uint, filter NotificationFilter) (NotificationPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = defaultNotificationPageSize
	}
	if perPage > maxNotificationPageSize {
		perPage = maxNotificationPageSize
	}

	items, total, err := service.notifications.List(ctx, ownerID, models.NotificationQuery{
		Type:        strings.TrimSpace(filter.Type),
		IncludeRead: filter.IncludeRead,
		Limit:       perPage,
		Offset:      (page - 1) * perPage,
	})
	if err != nil {
		return NotificationPage{}, err
	}
	return NotificationPage{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

func (service *NotificationService) Recent(ctx context.Context, ownerID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = RecentNotificationLimit
	}
	items, _, err := service.notifications.List(ctx, ownerID, models.NotificationQuery{
		IncludeRead: true,
		Limit:       limit,
	})
	return items, err
}

func (service *NotificationService) UnreadCount(ctx context.Context, ownerID uint) (int64, error) {
	return service.notifications.CountUnread(ctx, ownerID)
}

// MarkRead is idempotent for the owner and reports ErrNotFound for ids the
// caller does not own.
func (service *NotificationService) MarkRead(ctx context.Context, notificationID uint, ownerID uint) error {
	affected, err := service.notifications.MarkRead(ctx, notificationID, ownerID, service.now().UTC())
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	_, found, err := service.notifications.FindForOwner(ctx, notificationID, ownerID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (service *NotificationService) MarkAllRead(ctx context.Context, ownerID uint) (int64, error) {
	return service.notifications.MarkAllRead(ctx, ownerID, service.now().UTC())
}

func (service *NotificationService) ClearRead(ctx context.Context, ownerID uint) (int64, error) {
	return service.notifications.DeleteRead(ctx, ownerID)
}

func (service *NotificationService) Delete(ctx context.Context, notificationID uint, ownerID uint) error {
	affected, err := service.notifications.DeleteForOwner(ctx, notificationID, ownerID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (service *NotificationService) Types(ctx context.Context, ownerID uint) ([]string, error) {
	return service.notifications.DistinctTypes(ctx, ownerID)
}

// SweepRead deletes read notifications older than maxAge. Unread ones are never touched.
func (service *NotificationService) SweepRead(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, invalidField("max_age", "must be positive")
	}
	return service.notifications.DeleteReadOlderThan(ctx, service.now().UTC().Add(-maxAge))
}
