package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/terraincognita07/tandem/internal/logging"
	"github.com/terraincognita07/tandem/internal/models"
	"go.uber.org/zap"
)

const (
	maxMemoryTitleLength   = 100
	maxMemoryContentLength = 2000
	defaultMemoryListLimit = 50
)

type MemoryRepository interface {
	Create(ctx context.Context, memory *models.Memory) error
	ListByCouple(ctx context.Context, coupleID uint, limit int) ([]models.Memory, error)
}

type MemoryNotifier interface {
	NotifyNewMemory(ctx context.Context, actor models.User, recipientID uint, memory models.Memory) error
}

type PairingResolver interface {
	RequirePairing(ctx context.Context, userID uint) (Pairing, error)
}

type MemoryInput struct {
	UserID  uint
	Title   string
	Content string
	Day     string
}

type MemoryService struct {
	memories MemoryRepository
	users    AnswerUserLookup
	pairings PairingResolver
	notifier MemoryNotifier
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

func NewMemoryService(memories MemoryRepository, users AnswerUserLookup, pairings PairingResolver, notifier MemoryNotifier, location *time.Location, logger *zap.Logger) *MemoryService {
	if location == nil {
		location = time.UTC
	}
	return &MemoryService{
		memories: memories,
		users:    users,
		pairings: pairings,
		notifier: notifier,
		location: location,
		logger:   logging.OrNop(logger).Named("memories"),
		now:      time.Now,
	}
}

func (service *MemoryService) AddMemory(ctx context.Context, input MemoryInput) (models.Memory, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.Memory{}, invalidField("title", "is required")
	}
	if utf8.RuneCountInString(title) > maxMemoryTitleLength {
		return models.Memory{}, invalidField("title", "must be at most 100 characters")
	}
	content := strings.TrimSpace(input.Content)
	if utf8.RuneCountInString(content) > maxMemoryContentLength {
		return models.Memory{}, invalidField("content", "must be at most 2000 characters")
	}
	now := service.now()
	day, err := ResolveDay(input.Day, "date", now, service.location)
	if err != nil {
		return models.Memory{}, err
	}
	if day > DayKey(now, service.location) {
		return models.Memory{}, invalidField("date", "must not be in the future")
	}

	pairing, err := service.pairings.RequirePairing(ctx, input.UserID)
	if err != nil {
		return models.Memory{}, err
	}

	memory := models.Memory{
		CoupleID:  pairing.CoupleID,
		CreatedBy: input.UserID,
		Title:     title,
		Content:   content,
		Day:       day,
		CreatedAt: now.UTC(),
	}
	if err := service.memories.Create(ctx, &memory); err != nil {
		return models.Memory{}, err
	}

	if service.notifier != nil {
		actor, err := service.users.FindByID(ctx, input.UserID)
		if err != nil {
			service.logger.Warn("memory notice skipped: author lookup failed", zap.Uint("user_id", input.UserID), zap.Error(err))
			return memory, nil
		}
		if err := service.notifier.NotifyNewMemory(ctx, actor, pairing.PartnerID, memory); err != nil {
			service.logger.Warn("memory notice failed", zap.Uint("user_id", pairing.PartnerID), zap.Error(err))
		}
	}
	return memory, nil
}

func (service *MemoryService) ListMemories(ctx context.Context, coupleID uint, limit int) ([]models.Memory, error) {
	if limit <= 0 || limit > defaultMemoryListLimit {
		limit = defaultMemoryListLimit
	}
	return service.memories.ListByCouple(ctx, coupleID, limit)
}
