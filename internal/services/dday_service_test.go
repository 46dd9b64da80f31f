package services

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/terraincognita07/tandem/internal/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memoryDDayRepo struct {
	rows   map[uint]models.DDay
	nextID uint
}

func newMemoryDDayRepo() *memoryDDayRepo {
	return &memoryDDayRepo{rows: map[uint]models.DDay{}}
}

func (repo *memoryDDayRepo) Create(_ context.Context, dday *models.DDay) error {
	repo.nextID++
	dday.ID = repo.nextID
	repo.rows[dday.ID] = *dday
	return nil
}

func (repo *memoryDDayRepo) FindForCouple(_ context.Context, ddayID uint, coupleID uint) (models.DDay, bool, error) {
	dday, ok := repo.rows[ddayID]
	if !ok || dday.CoupleID != coupleID {
		return models.DDay{}, false, nil
	}
	return dday, true, nil
}

func (repo *memoryDDayRepo) ListByCouple(_ context.Context, coupleID uint) ([]models.DDay, error) {
	out := make([]models.DDay, 0)
	for _, dday := range repo.rows {
		if dday.CoupleID == coupleID {
			out = append(out, dday)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetDay < out[j].TargetDay })
	return out, nil
}

func (repo *memoryDDayRepo) Update(_ context.Context, dday *models.DDay) (int64, error) {
	if _, ok := repo.rows[dday.ID]; !ok {
		return 0, nil
	}
	repo.rows[dday.ID] = *dday
	return 1, nil
}

func (repo *memoryDDayRepo) DeleteForCouple(_ context.Context, ddayID uint, coupleID uint) (int64, error) {
	dday, ok := repo.rows[ddayID]
	if !ok || dday.CoupleID != coupleID {
		return 0, nil
	}
	delete(repo.rows, ddayID)
	return 1, nil
}

func (repo *memoryDDayRepo) ListDue(_ context.Context, targetDays []string, today string) ([]models.DDay, error) {
	out := make([]models.DDay, 0)
	for _, dday := range repo.rows {
		if slices.Contains(targetDays, dday.TargetDay) && dday.RemindedOn != today {
			out = append(out, dday)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (repo *memoryDDayRepo) MarkReminded(_ context.Context, ddayID uint, today string) (bool, error) {
	dday, ok := repo.rows[ddayID]
	if !ok || dday.RemindedOn == today {
		return false, nil
	}
	dday.RemindedOn = today
	repo.rows[ddayID] = dday
	return true, nil
}

type ddayReminderCall struct {
	recipientID   uint
	ddayID        uint
	daysRemaining int
}

type recordingDDayNotifier struct {
	calls []ddayReminderCall
}

func (notifier *recordingDDayNotifier) NotifyDDayReminder(_ context.Context, recipientID uint, dday models.DDay, daysRemaining int) error {
	notifier.calls = append(notifier.calls, ddayReminderCall{recipientID: recipientID, ddayID: dday.ID, daysRemaining: daysRemaining})
	return nil
}

func newTestDDayService(partners map[uint]uint) (*DDayService, *memoryDDayRepo, *recordingDDayNotifier) {
	repo := newMemoryDDayRepo()
	notifier := &recordingDDayNotifier{}
	service := NewDDayService(repo, &stubPartners{partners: partners}, notifier, time.UTC, nil)
	service.now = func() time.Time { return producerNow }
	return service, repo, notifier
}

func TestDaysRemainingAndStatus(t *testing.T) {
	cases := []struct {
		target string
		days   int
		status string
	}{
		{target: "2024-06-17", days: 7, status: "D-7"},
		{target: "2024-06-10", days: 0, status: "D-Day"},
		{target: "2024-06-08", days: -2, status: "D+2"},
		{target: "2025-06-10", days: 365, status: "D-365"},
	}
	for _, tc := range cases {
		days := DaysRemaining(tc.target, "2024-06-10")
		if days != tc.days {
			t.Fatalf("DaysRemaining(%s) = %d, want %d", tc.target, days, tc.days)
		}
		if status := DDayStatus(days); status != tc.status {
			t.Fatalf("DDayStatus(%d) = %q, want %q", days, status, tc.status)
		}
	}
}

func TestCreateDDayValidation(t *testing.T) {
	service, repo, _ := newTestDDayService(map[uint]uint{1: 2, 2: 1})
	ctx := context.Background()

	cases := []DDayInput{
		{UserID: 1, Title: "  ", Day: "2024-07-01"},
		{UserID: 1, Title: strings.Repeat("t", 101), Day: "2024-07-01"},
		{UserID: 1, Title: "ok", Description: strings.Repeat("d", 1001), Day: "2024-07-01"},
		{UserID: 1, Title: "ok"},
		{UserID: 1, Title: "ok", Day: "07/01/2024"},
	}
	for index, input := range cases {
		if _, err := service.Create(ctx, input); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", index, err)
		}
	}
	if len(repo.rows) != 0 {
		t.Fatalf("expected no writes, got %d", len(repo.rows))
	}

	if _, err := service.Create(ctx, DDayInput{UserID: 3, Title: "solo", Day: "2024-07-01"}); !errors.Is(err, ErrNotPaired) {
		t.Fatalf("expected ErrNotPaired, got %v", err)
	}
}

func TestDDayCRUDIsCoupleScoped(t *testing.T) {
	service, repo, _ := newTestDDayService(map[uint]uint{1: 2, 2: 1})
	ctx := context.Background()

	created, err := service.Create(ctx, DDayInput{UserID: 1, Title: " Anniversary ", Day: "2024-07-01"})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if created.Title != "Anniversary" || created.CoupleID != 1 || created.CreatedBy != 1 {
		t.Fatalf("unexpected dday: %#v", created)
	}

	listed, err := service.List(ctx, 2)
	if err != nil || len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("expected the partner to see the dday, got %#v, %v", listed, err)
	}

	repo.rows[99] = models.DDay{ID: 99, CoupleID: 7, CreatedBy: 9, Title: "other", TargetDay: "2024-07-01"}
	if _, err := service.Update(ctx, 99, DDayInput{UserID: 1, Title: "mine now", Day: "2024-07-01"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another couple's dday, got %v", err)
	}
	if err := service.Delete(ctx, 1, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting another couple's dday, got %v", err)
	}

	if err := service.Delete(ctx, 2, created.ID); err != nil {
		t.Fatalf("partner Delete() unexpected error: %v", err)
	}
	if err := service.Delete(ctx, 2, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUpdateDDayResetsReminderWhenDateMoves(t *testing.T) {
	service, repo, _ := newTestDDayService(map[uint]uint{1: 2, 2: 1})
	ctx := context.Background()

	created, err := service.Create(ctx, DDayInput{UserID: 1, Title: "Trip", Day: "2024-06-11"})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	stored := repo.rows[created.ID]
	stored.RemindedOn = "2024-06-10"
	repo.rows[created.ID] = stored

	renamed, err := service.Update(ctx, created.ID, DDayInput{UserID: 2, Title: "Trip to Jeju", Day: "2024-06-11"})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if renamed.RemindedOn != "2024-06-10" {
		t.Fatalf("expected a rename to keep the reminder mark, got %q", renamed.RemindedOn)
	}

	moved, err := service.Update(ctx, created.ID, DDayInput{UserID: 2, Title: "Trip to Jeju", Day: "2024-06-17"})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if moved.RemindedOn != "" || moved.TargetDay != "2024-06-17" {
		t.Fatalf("expected a moved date to clear the reminder mark, got %#v", moved)
	}
}

func TestRemindDueNotifiesBothPartnersOncePerDay(t *testing.T) {
	service, repo, notifier := newTestDDayService(map[uint]uint{1: 2, 2: 1})
	ctx := context.Background()

	for _, day := range []string{"2024-06-17", "2024-06-11", "2024-06-10", "2024-06-12", "2024-06-09"} {
		if _, err := service.Create(ctx, DDayInput{UserID: 1, Title: "day " + day, Day: day}); err != nil {
			t.Fatalf("Create(%s) unexpected error: %v", day, err)
		}
	}
	repo.rows[50] = models.DDay{ID: 50, CoupleID: 8, CreatedBy: 5, Title: "broken up", TargetDay: "2024-06-10"}

	sent, err := service.RemindDue(ctx)
	if err != nil {
		t.Fatalf("RemindDue() unexpected error: %v", err)
	}
	if sent != 6 || len(notifier.calls) != 6 {
		t.Fatalf("expected 3 ddays reminded to 2 partners, got sent=%d calls=%#v", sent, notifier.calls)
	}
	remaining := map[int]int{}
	for _, call := range notifier.calls {
		if call.recipientID != 1 && call.recipientID != 2 {
			t.Fatalf("unexpected recipient %d", call.recipientID)
		}
		remaining[call.daysRemaining]++
	}
	if remaining[7] != 2 || remaining[1] != 2 || remaining[0] != 2 {
		t.Fatalf("expected reminders at 7, 1 and 0 days, got %#v", remaining)
	}
	if repo.rows[50].RemindedOn != "2024-06-10" {
		t.Fatalf("expected the orphaned dday to be claimed without a notice")
	}

	sent, err = service.RemindDue(ctx)
	if err != nil || sent != 0 || len(notifier.calls) != 6 {
		t.Fatalf("expected no repeat on the same day, got sent=%d err=%v calls=%d", sent, err, len(notifier.calls))
	}

	service.now = func() time.Time { return producerNow.Add(24 * time.Hour) }
	sent, err = service.RemindDue(ctx)
	if err != nil || sent != 4 {
		t.Fatalf("expected the next day to remind the 2024-06-11 and 2024-06-12 ddays, got sent=%d err=%v", sent, err)
	}
}

func TestDDayReminderRunsOnStart(t *testing.T) {
	service, _, notifier := newTestDDayService(map[uint]uint{1: 2, 2: 1})
	if _, err := service.Create(context.Background(), DDayInput{UserID: 1, Title: "today", Day: "2024-06-10"}); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	core, logs := observer.New(zapcore.InfoLevel)
	reminder := NewDDayReminder(service, time.Hour, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reminder.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && logs.FilterMessage("dday reminders sent").Len() == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	if logs.FilterMessage("dday reminders sent").Len() != 1 {
		t.Fatal("expected the first reminder run on start")
	}
	if len(notifier.calls) != 2 {
		t.Fatalf("expected both partners reminded, got %#v", notifier.calls)
	}
}

func TestDDayReminderDisabledWithoutInterval(t *testing.T) {
	service, _, _ := newTestDDayService(map[uint]uint{})
	core, logs := observer.New(zapcore.WarnLevel)

	NewDDayReminder(service, 0, zap.New(core)).Start(context.Background())
	if logs.FilterMessage("dday reminder disabled").Len() != 1 {
		t.Fatal("expected disabled warning")
	}
}
