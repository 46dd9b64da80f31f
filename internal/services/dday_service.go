package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/terraincognita07/tandem/internal/logging"
	"github.com/terraincognita07/tandem/internal/models"
	"go.uber.org/zap"
)

const (
	maxDDayTitleLength       = 100
	maxDDayDescriptionLength = 1000
)

// ddayReminderLeads lists how many days before the target both partners are
// reminded. Zero is the day itself.
var ddayReminderLeads = []int{7, 1, 0}

type DDayRepository interface {
	Create(ctx context.Context, dday *models.DDay) error
	FindForCouple(ctx context.Context, ddayID uint, coupleID uint) (models.DDay, bool, error)
	ListByCouple(ctx context.Context, coupleID uint) ([]models.DDay, error)
	Update(ctx context.Context, dday *models.DDay) (int64, error)
	DeleteForCouple(ctx context.Context, ddayID uint, coupleID uint) (int64, error)
	ListDue(ctx context.Context, targetDays []string, today string) ([]models.DDay, error)
	MarkReminded(ctx context.Context, ddayID uint, today string) (bool, error)
}

type DDayNotifier interface {
	NotifyDDayReminder(ctx context.Context, recipientID uint, dday models.DDay, daysRemaining int) error
}

type DDayInput struct {
	UserID      uint
	Title       string
	Description string
	Day         string
}

// DDayService keeps the countdown dates of a couple. Both partners see and
// edit the same list.
type DDayService struct {
	ddays    DDayRepository
	pairings PairingResolver
	notifier DDayNotifier
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

func NewDDayService(ddays DDayRepository, pairings PairingResolver, notifier DDayNotifier, location *time.Location, logger *zap.Logger) *DDayService {
	if location == nil {
		location = time.UTC
	}
	return &DDayService{
		ddays:    ddays,
		pairings: pairings,
		notifier: notifier,
		location: location,
		logger:   logging.OrNop(logger).Named("ddays"),
		now:      time.Now,
	}
}

// Today is the current day key in the service location.
func (service *DDayService) Today() string {
	return DayKey(service.now(), service.location)
}

// DaysRemaining counts calendar days from today to targetDay. It is negative
// once the day has passed.
func DaysRemaining(targetDay string, today string) int {
	target, err := time.Parse(DayLayout, targetDay)
	if err != nil {
		return 0
	}
	current, err := time.Parse(DayLayout, today)
	if err != nil {
		return 0
	}
	return int(target.Sub(current).Hours() / 24)
}

// DDayStatus renders a countdown the way couples write it: D-3, D-Day, D+2.
func DDayStatus(daysRemaining int) string {
	switch {
	case daysRemaining > 0:
		return "D-" + strconv.Itoa(daysRemaining)
	case daysRemaining == 0:
		return "D-Day"
	default:
		return "D+" + strconv.Itoa(-daysRemaining)
	}
}

func normalizeDDayInput(input DDayInput) (string, string, string, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return "", "", "", invalidField("title", "is required")
	}
	if utf8.RuneCountInString(title) > maxDDayTitleLength {
		return "", "", "", invalidField("title", "must be at most 100 characters")
	}
	description := strings.TrimSpace(input.Description)
	if utf8.RuneCountInString(description) > maxDDayDescriptionLength {
		return "", "", "", invalidField("description", "must be at most 1000 characters")
	}
	if strings.TrimSpace(input.Day) == "" {
		return "", "", "", invalidField("target_date", "is required")
	}
	day, err := ParseDayKey(input.Day, "target_date")
	if err != nil {
		return "", "", "", err
	}
	return title, description, day, nil
}

func (service *DDayService) Create(ctx context.Context, input DDayInput) (models.DDay, error) {
	title, description, day, err := normalizeDDayInput(input)
	if err != nil {
		return models.DDay{}, err
	}
	pairing, err := service.pairings.RequirePairing(ctx, input.UserID)
	if err != nil {
		return models.DDay{}, err
	}

	now := service.now().UTC()
	dday := models.DDay{
		CoupleID:    pairing.CoupleID,
		CreatedBy:   input.UserID,
		Title:       title,
		Description: description,
		TargetDay:   day,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := service.ddays.Create(ctx, &dday); err != nil {
		return models.DDay{}, err
	}
	return dday, nil
}

func (service *DDayService) Update(ctx context.Context, ddayID uint, input DDayInput) (models.DDay, error) {
	title, description, day, err := normalizeDDayInput(input)
	if err != nil {
		return models.DDay{}, err
	}
	pairing, err := service.pairings.RequirePairing(ctx, input.UserID)
	if err != nil {
		return models.DDay{}, err
	}

	dday, found, err := service.ddays.FindForCouple(ctx, ddayID, pairing.CoupleID)
	if err != nil {
		return models.DDay{}, err
	}
	if !found {
		return models.DDay{}, ErrNotFound
	}
	if dday.TargetDay != day {
		dday.RemindedOn = ""
	}
	dday.Title = title
	dday.Description = description
	dday.TargetDay = day
	dday.UpdatedAt = service.now().UTC()

	updated, err := service.ddays.Update(ctx, &dday)
	if err != nil {
		return models.DDay{}, err
	}
	if updated == 0 {
		return models.DDay{}, ErrNotFound
	}
	return dday, nil
}

func (service *DDayService) Delete(ctx context.Context, userID uint, ddayID uint) error {
	pairing, err := service.pairings.RequirePairing(ctx, userID)
	if err != nil {
		return err
	}
	deleted, err := service.ddays.DeleteForCouple(ctx, ddayID, pairing.CoupleID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the couple's D-Days, nearest target first.
func (service *DDayService) List(ctx context.Context, userID uint) ([]models.DDay, error) {
	pairing, err := service.pairings.RequirePairing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return service.ddays.ListByCouple(ctx, pairing.CoupleID)
}

// RemindDue notifies both partners of every D-Day that is a reminder lead
// away from today. Each D-Day is reminded at most once per day.
func (service *DDayService) RemindDue(ctx context.Context) (int, error) {
	today := service.Today()
	targets := make([]string, 0, len(ddayReminderLeads))
	for _, lead := range ddayReminderLeads {
		targets = append(targets, ShiftDay(today, lead))
	}

	due, err := service.ddays.ListDue(ctx, targets, today)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, dday := range due {
		claimed, err := service.ddays.MarkReminded(ctx, dday.ID, today)
		if err != nil {
			return sent, err
		}
		if !claimed {
			continue
		}

		pairing, err := service.pairings.RequirePairing(ctx, dday.CreatedBy)
		if err != nil || pairing.CoupleID != dday.CoupleID {
			if err != nil && !errors.Is(err, ErrNotPaired) {
				service.logger.Warn("dday reminder skipped: pairing lookup failed", zap.Uint("dday_id", dday.ID), zap.Error(err))
			}
			continue
		}

		daysRemaining := DaysRemaining(dday.TargetDay, today)
		for _, recipientID := range []uint{dday.CreatedBy, pairing.PartnerID} {
			if err := service.notifier.NotifyDDayReminder(ctx, recipientID, dday, daysRemaining); err != nil {
				service.logger.Warn("dday reminder failed",
					zap.Uint("dday_id", dday.ID),
					zap.Uint("user_id", recipientID),
					zap.Error(err),
				)
				continue
			}
			sent++
		}
	}
	return sent, nil
}
