package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/terraincognita07/tandem/internal/models"
)

type recordingAnswerNotifier struct {
	mu    sync.Mutex
	calls []uint
}

func (notifier *recordingAnswerNotifier) NotifyNewAnswer(_ context.Context, _ models.User, recipientID uint, _ models.Question, _ string) error {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.calls = append(notifier.calls, recipientID)
	return nil
}

type answerFixture struct {
	service  *AnswerService
	answers  *memoryAnswerRepo
	notifier *recordingAnswerNotifier
}

func newAnswerFixture(now time.Time) answerFixture {
	answers := newMemoryAnswerRepo()
	notifier := &recordingAnswerNotifier{}
	service := NewAnswerService(
		answers,
		fiveQuestionPool(),
		newStubUsers(models.User{ID: 1, Email: "a@example.com"}, models.User{ID: 2, Email: "b@example.com"}),
		&stubPartners{partners: map[uint]uint{1: 2, 2: 1}},
		notifier,
		time.UTC,
		nil,
	)
	service.now = func() time.Time { return now }
	return answerFixture{service: service, answers: answers, notifier: notifier}
}

var answerFixtureNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func TestSubmitRejectsInvalidTextWithoutWriting(t *testing.T) {
	fixture := newAnswerFixture(answerFixtureNow)

	cases := []string{"", "   ", "abcd", strings.Repeat("x", maxAnswerLength+1)}
	for _, text := range cases {
		_, _, err := fixture.service.Submit(context.Background(), AnswerInput{QuestionID: 11, UserID: 1, Day: "2024-06-01", Text: text})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("text of %d runes: expected validation error, got %v", len([]rune(text)), err)
		}
	}
	if fixture.answers.upserts != 0 {
		t.Fatalf("expected no writes, got %d", fixture.answers.upserts)
	}
}

func TestSubmitUnknownQuestionIsNotFound(t *testing.T) {
	fixture := newAnswerFixture(answerFixtureNow)

	_, _, err := fixture.service.Submit(context.Background(), AnswerInput{QuestionID: 404, UserID: 1, Day: "2024-06-01", Text: "hello there"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if fixture.answers.upserts != 0 {
		t.Fatalf("expected no writes, got %d", fixture.answers.upserts)
	}
}

func TestSubmitTwiceUpdatesInPlace(t *testing.T) {
	fixture := newAnswerFixture(answerFixtureNow)
	ctx := context.Background()

	_, result, err := fixture.service.Submit(ctx, AnswerInput{QuestionID: 11, UserID: 1, Day: "2024-06-01", Text: "first answer"})
	if err != nil || result != SubmitCreated {
		t.Fatalf("first Submit() = %q, %v; want created", result, err)
	}
	_, result, err = fixture.service.Submit(ctx, AnswerInput{QuestionID: 11, UserID: 1, Day: "2024-06-01", Text: "  second answer  "})
	if err != nil || result != SubmitUpdated {
		t.Fatalf("second Submit() = %q, %v; want updated", result, err)
	}

	if len(fixture.answers.rows) != 1 {
		t.Fatalf("expected one stored answer, got %d", len(fixture.answers.rows))
	}
	stored, _, _ := fixture.answers.FindByQuestionUserDay(ctx, 11, 1, "2024-06-01")
	if stored.AnswerText != "second answer" {
		t.Fatalf("expected latest trimmed text, got %q", stored.AnswerText)
	}
	if len(fixture.notifier.calls) != 1 || fixture.notifier.calls[0] != 2 {
		t.Fatalf("expected exactly one notice to partner 2, got %#v", fixture.notifier.calls)
	}
}

func TestSubmitClampsFutureDayToToday(t *testing.T) {
	fixture := newAnswerFixture(answerFixtureNow)

	answer, _, err := fixture.service.Submit(context.Background(), AnswerInput{QuestionID: 11, UserID: 1, Day: "2030-01-01", Text: "from the future"})
	if err != nil {
		t.Fatalf("Submit() unexpected error: %v", err)
	}
	if answer.Day != "2024-06-01" {
		t.Fatalf("expected day clamped to 2024-06-01, got %s", answer.Day)
	}
}

func TestPartnerAnswerHiddenUntilViewerAnswers(t *testing.T) {
	fixture := newAnswerFixture(answerFixtureNow)
	ctx := context.Background()

	if _, _, err := fixture.service.Submit(ctx, AnswerInput{QuestionID: 11, UserID: 1, Day: "2024-06-01", Text: "I like tea"}); err != nil {
		t.Fatalf("A Submit() unexpected error: %v", err)
	}

	hidden, err := fixture.service.PartnerAnswerIfVisible(ctx, 11, "2024-06-01", 2, 1)
	if err != nil {
		t.Fatalf("PartnerAnswerIfVisible() unexpected error: %v", err)
	}
	if hidden != nil {
		t.Fatalf("expected nil before B answers, got %#v", hidden)
	}

	if _, _, err := fixture.service.Submit(ctx, AnswerInput{QuestionID: 11, UserID: 2, Day: "2024-06-01", Text: "coffee for me"}); err != nil {
		t.Fatalf("B Submit() unexpected error: %v", err)
	}

	forB, err := fixture.service.PartnerAnswerIfVisible(ctx, 11, "2024-06-01", 2, 1)
	if err != nil || forB == nil || forB.AnswerText != "I like tea" {
		t.Fatalf("expected B to see A's answer, got %#v, %v", forB, err)
	}
	forA, err := fixture.service.PartnerAnswerIfVisible(ctx, 11, "2024-06-01", 1, 2)
	if err != nil || forA == nil || forA.AnswerText != "coffee for me" {
		t.Fatalf("expected A to see B's answer, got %#v, %v", forA, err)
	}
}

func TestPartnerAnswerGateIsPerDay(t *testing.T) {
	fixture := newAnswerFixture(answerFixtureNow)
	ctx := context.Background()

	fixture.service.Submit(ctx, AnswerInput{QuestionID: 11, UserID: 1, Day: "2024-06-01", Text: "today answer"})
	fixture.service.Submit(ctx, AnswerInput{QuestionID: 11, UserID: 2, Day: "2024-05-31", Text: "yesterday answer"})

	got, err := fixture.service.PartnerAnswerIfVisible(ctx, 11, "2024-06-01", 2, 1)
	if err != nil {
		t.Fatalf("PartnerAnswerIfVisible() unexpected error: %v", err)
	}
	if got != nil {
		t.Fatal("answer on another day must not open the gate")
	}
}

func TestViewerStatusStripsPartnerAnswerUntilViewerAnswers(t *testing.T) {
	fixture := newAnswerFixture(answerFixtureNow)
	ctx := context.Background()
	fixture.service.Submit(ctx, AnswerInput{QuestionID: 12, UserID: 1, Day: "2024-06-01", Text: "secret text"})

	view, err := fixture.service.ViewerStatus(ctx, 12, "2024-06-01", 2, 1)
	if err != nil {
		t.Fatalf("ViewerStatus() unexpected error: %v", err)
	}
	if view.MyAnswered || !view.PartnerAnswered || view.BothAnswered {
		t.Fatalf("unexpected flags: %#v", view)
	}
	if view.PartnerAnswer != nil || view.CanViewPartnerAnswer {
		t.Fatal("partner answer leaked before viewer answered")
	}

	raw, err := fixture.service.CompletionStatus(ctx, 12, "2024-06-01", 1, 2)
	if err != nil {
		t.Fatalf("CompletionStatus() unexpected error: %v", err)
	}
	if !raw.AAnswered() || raw.BAnswered() || raw.BothAnswered() {
		t.Fatalf("unexpected raw status: %#v", raw)
	}
}

func TestHistoryPairsPartnerAnswers(t *testing.T) {
	fixture := newAnswerFixture(answerFixtureNow)
	ctx := context.Background()
	fixture.service.Submit(ctx, AnswerInput{QuestionID: 11, UserID: 1, Day: "2024-05-30", Text: "older answer"})
	fixture.service.Submit(ctx, AnswerInput{QuestionID: 12, UserID: 1, Day: "2024-06-01", Text: "newer answer"})
	fixture.service.Submit(ctx, AnswerInput{QuestionID: 12, UserID: 2, Day: "2024-06-01", Text: "partner reply"})

	page, err := fixture.service.History(ctx, 1, 2, HistoryFilter{})
	if err != nil {
		t.Fatalf("History() unexpected error: %v", err)
	}
	if page.Total != 2 || len(page.Entries) != 2 {
		t.Fatalf("expected 2 entries, got total=%d len=%d", page.Total, len(page.Entries))
	}
	if page.Entries[0].Question.ID != 12 || page.Entries[0].PartnerAnswer == nil {
		t.Fatalf("expected newest entry with partner answer, got %#v", page.Entries[0])
	}
	if page.Entries[1].PartnerAnswer != nil {
		t.Fatalf("expected no partner answer on older entry, got %#v", page.Entries[1].PartnerAnswer)
	}
}

func TestStatsCountsRecentAndShared(t *testing.T) {
	fixture := newAnswerFixture(answerFixtureNow)
	ctx := context.Background()
	fixture.service.Submit(ctx, AnswerInput{QuestionID: 11, UserID: 1, Day: "2024-05-01", Text: "long ago answer"})
	fixture.service.Submit(ctx, AnswerInput{QuestionID: 12, UserID: 1, Day: "2024-05-27", Text: "this week answer"})
	fixture.service.Submit(ctx, AnswerInput{QuestionID: 12, UserID: 2, Day: "2024-05-27", Text: "partner this week"})

	stats, err := fixture.service.Stats(ctx, 1, 2)
	if err != nil {
		t.Fatalf("Stats() unexpected error: %v", err)
	}
	want := AnswerStats{MyTotal: 2, PartnerTotal: 1, BothAnswered: 1, LastSevenDay: 1}
	if stats != want {
		t.Fatalf("Stats() = %#v, want %#v", stats, want)
	}
}
