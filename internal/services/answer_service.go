package services

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/terraincognita07/tandem/internal/logging"
	"github.com/terraincognita07/tandem/internal/models"
	"go.uber.org/zap"
)

const (
	minAnswerLength      = 5
	maxAnswerLength      = 2000
	defaultHistoryPage   = 20
	maxHistoryPage       = 100
	recentActivityWindow = 7
)

type SubmitResult string

const (
	SubmitCreated SubmitResult = "created"
	SubmitUpdated SubmitResult = "updated"
)

type AnswerRepository interface {
	Upsert(ctx context.Context, answer *models.Answer) (bool, error)
	FindByQuestionUserDay(ctx context.Context, questionID uint, userID uint, day string) (models.Answer, bool, error)
	ListByUser(ctx context.Context, userID uint, query models.AnswerQuery) ([]models.Answer, int64, error)
	ListByUserAndQuestions(ctx context.Context, userID uint, questionIDs []uint) ([]models.Answer, error)
	CountByUser(ctx context.Context, userID uint, fromDay string) (int64, error)
	CountShared(ctx context.Context, userID uint, partnerID uint) (int64, error)
}

type AnswerQuestionLookup interface {
	FindByID(ctx context.Context, questionID uint) (models.Question, error)
	FindByIDs(ctx context.Context, questionIDs []uint) ([]models.Question, error)
}

type AnswerNotifier interface {
	NotifyNewAnswer(ctx context.Context, actor models.User, recipientID uint, question models.Question, day string) error
}

type AnswerUserLookup interface {
	FindByID(ctx context.Context, userID uint) (models.User, error)
}

type PartnerResolver interface {
	ResolvePartner(ctx context.Context, userID uint) (uint, bool, error)
}

type AnswerInput struct {
	QuestionID uint
	UserID     uint
	Day        string
	Text       string
}

type HistoryFilter struct {
	Category string
	FromDay  string
	ToDay    string
	Page     int
	PerPage  int
}

type HistoryEntry struct {
	Question      models.Question
	MyAnswer      models.Answer
	PartnerAnswer *models.Answer
}

type HistoryPage struct {
	Entries []HistoryEntry
	Total   int64
	Page    int
	PerPage int
}

type AnswerStats struct {
	MyTotal      int64
	PartnerTotal int64
	BothAnswered int64
	LastSevenDay int64
}

type AnswerService struct {
	answers   AnswerRepository
	questions AnswerQuestionLookup
	users     AnswerUserLookup
	partners  PartnerResolver
	notifier  AnswerNotifier
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

func NewAnswerService(
	answers AnswerRepository,
	questions AnswerQuestionLookup,
	users AnswerUserLookup,
	partners PartnerResolver,
	notifier AnswerNotifier,
	location *time.Location,
	logger *zap.Logger,
) *AnswerService {
	if location == nil {
		location = time.UTC
	}
	return &AnswerService{
		answers:   answers,
		questions: questions,
		users:     users,
		partners:  partners,
		notifier:  notifier,
		location:  location,
		logger:    logging.OrNop(logger).Named("answers"),
		now:       time.Now,
	}
}

func NormalizeAnswerText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	length := utf8.RuneCountInString(text)
	if length < minAnswerLength {
		return "", invalidField("text", "must be at least 5 characters")
	}
	if length > maxAnswerLength {
		return "", invalidField("text", "must be at most 2000 characters")
	}
	return text, nil
}

// Submit validates everything before writing, then upserts the answer keyed by
// (question, user, day). Only a newly created answer notifies the partner.
func (service *AnswerService) Submit(ctx context.Context, input AnswerInput) (models.Answer, SubmitResult, error) {
	if input.UserID == 0 {
		return models.Answer{}, "", invalidField("user_id", "is required")
	}
	if input.QuestionID == 0 {
		return models.Answer{}, "", invalidField("question_id", "is required")
	}
	text, err := NormalizeAnswerText(input.Text)
	if err != nil {
		return models.Answer{}, "", err
	}
	now := service.now()
	day, err := ResolveDay(input.Day, "date", now, service.location)
	if err != nil {
		return models.Answer{}, "", err
	}
	day = ClampDayToToday(day, now, service.location)

	question, err := service.questions.FindByID(ctx, input.QuestionID)
	if err != nil {
		return models.Answer{}, "", translateLookupError(err)
	}

	answer := models.Answer{
		QuestionID: question.ID,
		UserID:     input.UserID,
		Day:        day,
		AnswerText: text,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	created, err := service.answers.Upsert(ctx, &answer)
	if err != nil {
		return models.Answer{}, "", err
	}
	if !created {
		return answer, SubmitUpdated, nil
	}

	service.announceAnswer(ctx, input.UserID, question, day)
	return answer, SubmitCreated, nil
}

func (service *AnswerService) announceAnswer(ctx context.Context, userID uint, question models.Question, day string) {
	if service.notifier == nil || service.partners == nil {
		return
	}
	partnerID, paired, err := service.partners.ResolvePartner(ctx, userID)
	if err != nil {
		service.logger.Warn("answer notice skipped: partner lookup failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	if !paired {
		return
	}
	actor, err := service.users.FindByID(ctx, userID)
	if err != nil {
		service.logger.Warn("answer notice skipped: author lookup failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	if err := service.notifier.NotifyNewAnswer(ctx, actor, partnerID, question, day); err != nil {
		service.logger.Warn("answer notice failed", zap.Uint("user_id", partnerID), zap.Error(err))
	}
}

func (service *AnswerService) findAnswer(ctx context.Context, questionID uint, userID uint, day string) (*models.Answer, error) {
	answer, found, err := service.answers.FindByQuestionUserDay(ctx, questionID, userID, day)
	if err != nil || !found {
		return nil, err
	}
	return &answer, nil
}

// PartnerAnswerIfVisible returns nil unless the viewer answered the same
// question on the same day. The partner row is not read otherwise.
func (service *AnswerService) PartnerAnswerIfVisible(ctx context.Context, questionID uint, day string, viewerID uint, partnerID uint) (*models.Answer, error) {
	day, err := ParseDayKey(day, "date")
	if err != nil {
		return nil, err
	}
	mine, err := service.findAnswer(ctx, questionID, viewerID, day)
	if err != nil || mine == nil {
		return nil, err
	}
	theirs, err := service.findAnswer(ctx, questionID, partnerID, day)
	if err != nil {
		return nil, err
	}
	if !CanViewPartnerAnswer(true, theirs != nil) {
		return nil, nil
	}
	return theirs, nil
}

// CompletionStatus loads the raw status for users A and B. Callers must pass
// it through GateCompletionForViewer before exposing it.
func (service *AnswerService) CompletionStatus(ctx context.Context, questionID uint, day string, userA uint, userB uint) (CompletionStatus, error) {
	day, err := ParseDayKey(day, "date")
	if err != nil {
		return CompletionStatus{}, err
	}
	answerA, err := service.findAnswer(ctx, questionID, userA, day)
	if err != nil {
		return CompletionStatus{}, err
	}
	answerB, err := service.findAnswer(ctx, questionID, userB, day)
	if err != nil {
		return CompletionStatus{}, err
	}
	return CompletionStatus{
		QuestionID: questionID,
		Day:        day,
		UserAID:    userA,
		UserBID:    userB,
		AnswerA:    answerA,
		AnswerB:    answerB,
	}, nil
}

// ViewerStatus is CompletionStatus already gated for viewerID.
func (service *AnswerService) ViewerStatus(ctx context.Context, questionID uint, day string, viewerID uint, partnerID uint) (ViewerCompletion, error) {
	status, err := service.CompletionStatus(ctx, questionID, day, viewerID, partnerID)
	if err != nil {
		return ViewerCompletion{}, err
	}
	return GateCompletionForViewer(status, viewerID), nil
}

// History lists the viewer's answers newest first. Partner answers are joined
// only for entries the viewer answered, which is every entry here.
func (service *AnswerService) History(ctx context.Context, viewerID uint, partnerID uint, filter HistoryFilter) (HistoryPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = defaultHistoryPage
	}
	if perPage > maxHistoryPage {
		perPage = maxHistoryPage
	}

	query := models.AnswerQuery{Limit: perPage, Offset: (page - 1) * perPage}
	if category := strings.ToLower(strings.TrimSpace(filter.Category)); models.IsKnownCategory(category) {
		query.Category = category
	}
	if strings.TrimSpace(filter.FromDay) != "" {
		from, err := ParseDayKey(filter.FromDay, "from")
		if err != nil {
			return HistoryPage{}, err
		}
		query.FromDay = from
	}
	if strings.TrimSpace(filter.ToDay) != "" {
		to, err := ParseDayKey(filter.ToDay, "to")
		if err != nil {
			return HistoryPage{}, err
		}
		query.ToDay = to
	}

	mine, total, err := service.answers.ListByUser(ctx, viewerID, query)
	if err != nil {
		return HistoryPage{}, err
	}

	questionIDs := make([]uint, 0, len(mine))
	seen := make(map[uint]struct{}, len(mine))
	for _, answer := range mine {
		if _, ok := seen[answer.QuestionID]; ok {
			continue
		}
		seen[answer.QuestionID] = struct{}{}
		questionIDs = append(questionIDs, answer.QuestionID)
	}

	questions, err := service.questions.FindByIDs(ctx, questionIDs)
	if err != nil {
		return HistoryPage{}, err
	}
	questionsByID := make(map[uint]models.Question, len(questions))
	for _, question := range questions {
		questionsByID[question.ID] = question
	}

	partnerByKey := map[string]models.Answer{}
	if partnerID != 0 {
		theirs, err := service.answers.ListByUserAndQuestions(ctx, partnerID, questionIDs)
		if err != nil {
			return HistoryPage{}, err
		}
		for _, answer := range theirs {
			partnerByKey[answerKey(answer.QuestionID, answer.Day)] = answer
		}
	}

	entries := make([]HistoryEntry, 0, len(mine))
	for _, answer := range mine {
		entry := HistoryEntry{Question: questionsByID[answer.QuestionID], MyAnswer: answer}
		if partnerAnswer, ok := partnerByKey[answerKey(answer.QuestionID, answer.Day)]; ok {
			entry.PartnerAnswer = &partnerAnswer
		}
		entries = append(entries, entry)
	}
	return HistoryPage{Entries: entries, Total: total, Page: page, PerPage: perPage}, nil
}

func (service *AnswerService) Stats(ctx context.Context, viewerID uint, partnerID uint) (AnswerStats, error) {
	var stats AnswerStats
	var err error
	if stats.MyTotal, err = service.answers.CountByUser(ctx, viewerID, ""); err != nil {
		return AnswerStats{}, err
	}
	weekStart := ShiftDay(DayKey(service.now(), service.location), -(recentActivityWindow - 1))
	if stats.LastSevenDay, err = service.answers.CountByUser(ctx, viewerID, weekStart); err != nil {
		return AnswerStats{}, err
	}
	if partnerID == 0 {
		return stats, nil
	}
	if stats.PartnerTotal, err = service.answers.CountByUser(ctx, partnerID, ""); err != nil {
		return AnswerStats{}, err
	}
	if stats.BothAnswered, err = service.answers.CountShared(ctx, viewerID, partnerID); err != nil {
		return AnswerStats{}, err
	}
	return stats, nil
}

func answerKey(questionID uint, day string) string {
	return day + "#" + strconv.FormatUint(uint64(questionID), 10)
}
