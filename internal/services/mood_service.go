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

const maxMoodNoteLength = 500

type MoodRepository interface {
	Upsert(ctx context.Context, entry *models.MoodEntry) (bool, error)
	ListByUserRange(ctx context.Context, userID uint, fromDay string, toDay string) ([]models.MoodEntry, error)
}

type MoodNotifier interface {
	NotifyMoodUpdate(ctx context.Context, actor models.User, recipientID uint, level int) error
}

type MoodInput struct {
	UserID uint
	Level  int
	Note   string
	Day    string
}

type MoodService struct {
	moods    MoodRepository
	users    AnswerUserLookup
	partners PartnerResolver
	notifier MoodNotifier
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

func NewMoodService(moods MoodRepository, users AnswerUserLookup, partners PartnerResolver, notifier MoodNotifier, location *time.Location, logger *zap.Logger) *MoodService {
	if location == nil {
		location = time.UTC
	}
	return &MoodService{
		moods:    moods,
		users:    users,
		partners: partners,
		notifier: notifier,
		location: location,
		logger:   logging.OrNop(logger).Named("moods"),
		now:      time.Now,
	}
}

// RecordMood stores one mood per user and day. The partner hears about the
// first entry of a day only; later edits are silent.
func (service *MoodService) RecordMood(ctx context.Context, input MoodInput) (models.MoodEntry, bool, error) {
	if input.UserID == 0 {
		return models.MoodEntry{}, false, invalidField("user_id", "is required")
	}
	if input.Level < models.MoodLevelMin || input.Level > models.MoodLevelMax {
		return models.MoodEntry{}, false, invalidField("level", "must be between 1 and 5")
	}
	note := strings.TrimSpace(input.Note)
	if utf8.RuneCountInString(note) > maxMoodNoteLength {
		return models.MoodEntry{}, false, invalidField("note", "must be at most 500 characters")
	}
	now := service.now()
	day, err := ResolveDay(input.Day, "date", now, service.location)
	if err != nil {
		return models.MoodEntry{}, false, err
	}
	day = ClampDayToToday(day, now, service.location)

	entry := models.MoodEntry{
		UserID:    input.UserID,
		Level:     input.Level,
		Note:      note,
		Day:       day,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	created, err := service.moods.Upsert(ctx, &entry)
	if err != nil {
		return models.MoodEntry{}, false, err
	}
	if created {
		service.announceMood(ctx, input.UserID, entry.Level)
	}
	return entry, created, nil
}

func (service *MoodService) announceMood(ctx context.Context, userID uint, level int) {
	if service.notifier == nil || service.partners == nil {
		return
	}
	partnerID, paired, err := service.partners.ResolvePartner(ctx, userID)
	if err != nil || !paired {
		if err != nil {
			service.logger.Warn("mood notice skipped: partner lookup failed", zap.Uint("user_id", userID), zap.Error(err))
		}
		return
	}
	actor, err := service.users.FindByID(ctx, userID)
	if err != nil {
		service.logger.Warn("mood notice skipped: author lookup failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	if err := service.notifier.NotifyMoodUpdate(ctx, actor, partnerID, level); err != nil {
		service.logger.Warn("mood notice failed", zap.Uint("user_id", partnerID), zap.Error(err))
	}
}

// ListMoods returns the user's moods between from and to, newest first. Empty
// bounds default to the last 30 days.
func (service *MoodService) ListMoods(ctx context.Context, userID uint, from string, to string) ([]models.MoodEntry, error) {
	today := DayKey(service.now(), service.location)
	toDay := today
	if strings.TrimSpace(to) != "" {
		parsed, err := ParseDayKey(to, "to")
		if err != nil {
			return nil, err
		}
		toDay = parsed
	}
	fromDay := ShiftDay(toDay, -29)
	if strings.TrimSpace(from) != "" {
		parsed, err := ParseDayKey(from, "from")
		if err != nil {
			return nil, err
		}
		fromDay = parsed
	}
	if fromDay > toDay {
		return nil, invalidField("from", "must not be after to")
	}
	return service.moods.ListByUserRange(ctx, userID, fromDay, toDay)
}
