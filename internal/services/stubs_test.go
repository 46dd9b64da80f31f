package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/terraincognita07/tandem/internal/models"
	"gorm.io/gorm"
)

type stubUsers struct {
	users map[uint]models.User
}

func newStubUsers(users ...models.User) *stubUsers {
	stub := &stubUsers{users: make(map[uint]models.User, len(users))}
	for _, user := range users {
		stub.users[user.ID] = user
	}
	return stub
}

func (stub *stubUsers) FindByID(_ context.Context, userID uint) (models.User, error) {
	user, ok := stub.users[userID]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

type stubPartners struct {
	partners map[uint]uint
	err      error
}

func (stub *stubPartners) ResolvePartner(_ context.Context, userID uint) (uint, bool, error) {
	if stub.err != nil {
		return 0, false, stub.err
	}
	partnerID, ok := stub.partners[userID]
	return partnerID, ok, nil
}

func (stub *stubPartners) RequirePairing(_ context.Context, userID uint) (Pairing, error) {
	partnerID, ok := stub.partners[userID]
	if !ok {
		return Pairing{}, ErrNotPaired
	}
	return Pairing{CoupleID: 1, PartnerID: partnerID}, nil
}

type stubTranslator struct{}

func (stubTranslator) Translate(_ string, key string) string {
	return key
}

func (stubTranslator) Translatef(_ string, key string, args ...any) string {
	return fmt.Sprintf(key+" %v", args...)
}

type memoryNotificationRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   []models.Notification
	err    error
}

func (repo *memoryNotificationRepo) Create(_ context.Context, notification *models.Notification) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.err != nil {
		return repo.err
	}
	repo.nextID++
	notification.ID = repo.nextID
	repo.rows = append(repo.rows, *notification)
	return nil
}

func (repo *memoryNotificationRepo) List(_ context.Context, ownerID uint, query models.NotificationQuery) ([]models.Notification, int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	matched := make([]models.Notification, 0)
	for _, row := range repo.rows {
		if row.UserID != ownerID || (!query.IncludeRead && row.IsRead) {
			continue
		}
		if query.Type != "" && row.Type != query.Type {
			continue
		}
		matched = append(matched, row)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	total := int64(len(matched))
	if query.Offset >= len(matched) {
		return []models.Notification{}, total, nil
	}
	matched = matched[query.Offset:]
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}
	return matched, total, nil
}

func (repo *memoryNotificationRepo) CountUnread(_ context.Context, ownerID uint) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	var count int64
	for _, row := range repo.rows {
		if row.UserID == ownerID && !row.IsRead {
			count++
		}
	}
	return count, nil
}

func (repo *memoryNotificationRepo) FindForOwner(_ context.Context, notificationID uint, ownerID uint) (models.Notification, bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, row := range repo.rows {
		if row.ID == notificationID && row.UserID == ownerID {
			return row, true, nil
		}
	}
	return models.Notification{}, false, nil
}

func (repo *memoryNotificationRepo) MarkRead(_ context.Context, notificationID uint, ownerID uint, readAt time.Time) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for index := range repo.rows {
		row := &repo.rows[index]
		if row.ID == notificationID && row.UserID == ownerID && !row.IsRead {
			row.IsRead = true
			row.ReadAt = &readAt
			return 1, nil
		}
	}
	return 0, nil
}

func (repo *memoryNotificationRepo) MarkAllRead(_ context.Context, ownerID uint, readAt time.Time) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	var affected int64
	for index := range repo.rows {
		row := &repo.rows[index]
		if row.UserID == ownerID && !row.IsRead {
			row.IsRead = true
			row.ReadAt = &readAt
			affected++
		}
	}
	return affected, nil
}

func (repo *memoryNotificationRepo) deleteWhere(keep func(models.Notification) bool) int64 {
	kept := repo.rows[:0]
	var deleted int64
	for _, row := range repo.rows {
		if keep(row) {
			kept = append(kept, row)
			continue
		}
		deleted++
	}
	repo.rows = kept
	return deleted
}

func (repo *memoryNotificationRepo) DeleteRead(_ context.Context, ownerID uint) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.deleteWhere(func(row models.Notification) bool {
		return row.UserID != ownerID || !row.IsRead
	}), nil
}

func (repo *memoryNotificationRepo) DeleteForOwner(_ context.Context, notificationID uint, ownerID uint) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.deleteWhere(func(row models.Notification) bool {
		return row.ID != notificationID || row.UserID != ownerID
	}), nil
}

func (repo *memoryNotificationRepo) DistinctTypes(_ context.Context, ownerID uint) ([]string, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	seen := map[string]struct{}{}
	types := make([]string, 0)
	for _, row := range repo.rows {
		if _, ok := seen[row.Type]; ok || row.UserID != ownerID {
			continue
		}
		seen[row.Type] = struct{}{}
		types = append(types, row.Type)
	}
	sort.Strings(types)
	return types, nil
}

func (repo *memoryNotificationRepo) DeleteReadOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.deleteWhere(func(row models.Notification) bool {
		return !row.IsRead || !row.CreatedAt.Before(cutoff)
	}), nil
}

type answerKeyTuple struct {
	questionID uint
	userID     uint
	day        string
}

type memoryAnswerRepo struct {
	mu      sync.Mutex
	nextID  uint
	rows    map[answerKeyTuple]models.Answer
	upserts int
}

func newMemoryAnswerRepo() *memoryAnswerRepo {
	return &memoryAnswerRepo{rows: map[answerKeyTuple]models.Answer{}}
}

func (repo *memoryAnswerRepo) Upsert(_ context.Context, answer *models.Answer) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.upserts++
	key := answerKeyTuple{answer.QuestionID, answer.UserID, answer.Day}
	if existing, ok := repo.rows[key]; ok {
		existing.AnswerText = answer.AnswerText
		existing.UpdatedAt = answer.UpdatedAt
		repo.rows[key] = existing
		*answer = existing
		return false, nil
	}
	repo.nextID++
	answer.ID = repo.nextID
	repo.rows[key] = *answer
	return true, nil
}

func (repo *memoryAnswerRepo) FindByQuestionUserDay(_ context.Context, questionID uint, userID uint, day string) (models.Answer, bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	answer, ok := repo.rows[answerKeyTuple{questionID, userID, day}]
	return answer, ok, nil
}

func (repo *memoryAnswerRepo) byUser(userID uint) []models.Answer {
	answers := make([]models.Answer, 0)
	for _, answer := range repo.rows {
		if answer.UserID == userID {
			answers = append(answers, answer)
		}
	}
	sort.Slice(answers, func(i, j int) bool {
		if answers[i].Day != answers[j].Day {
			return answers[i].Day > answers[j].Day
		}
		return answers[i].ID > answers[j].ID
	})
	return answers
}

func (repo *memoryAnswerRepo) ListByUser(_ context.Context, userID uint, query models.AnswerQuery) ([]models.Answer, int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	answers := repo.byUser(userID)
	total := int64(len(answers))
	if query.Offset >= len(answers) {
		return []models.Answer{}, total, nil
	}
	answers = answers[query.Offset:]
	if query.Limit > 0 && len(answers) > query.Limit {
		answers = answers[:query.Limit]
	}
	return answers, total, nil
}

func (repo *memoryAnswerRepo) ListByUserAndQuestions(_ context.Context, userID uint, questionIDs []uint) ([]models.Answer, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	wanted := map[uint]struct{}{}
	for _, id := range questionIDs {
		wanted[id] = struct{}{}
	}
	answers := make([]models.Answer, 0)
	for _, answer := range repo.byUser(userID) {
		if _, ok := wanted[answer.QuestionID]; ok {
			answers = append(answers, answer)
		}
	}
	return answers, nil
}

func (repo *memoryAnswerRepo) CountByUser(_ context.Context, userID uint, fromDay string) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	var count int64
	for _, answer := range repo.byUser(userID) {
		if fromDay == "" || answer.Day >= fromDay {
			count++
		}
	}
	return count, nil
}

func (repo *memoryAnswerRepo) CountShared(_ context.Context, userID uint, partnerID uint) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	var count int64
	for key := range repo.rows {
		if key.userID != userID {
			continue
		}
		if _, ok := repo.rows[answerKeyTuple{key.questionID, partnerID, key.day}]; ok {
			count++
		}
	}
	return count, nil
}

type stubQuestions struct {
	questions map[uint]models.Question
	ids       []uint
}

func newStubQuestions(questions ...models.Question) *stubQuestions {
	stub := &stubQuestions{questions: map[uint]models.Question{}}
	for _, question := range questions {
		stub.questions[question.ID] = question
		stub.ids = append(stub.ids, question.ID)
	}
	return stub
}

func (stub *stubQuestions) ListIDs(context.Context) ([]uint, error) {
	return append([]uint(nil), stub.ids...), nil
}

func (stub *stubQuestions) FindByID(_ context.Context, questionID uint) (models.Question, error) {
	question, ok := stub.questions[questionID]
	if !ok {
		return models.Question{}, gorm.ErrRecordNotFound
	}
	return question, nil
}

func (stub *stubQuestions) FindByIDs(_ context.Context, questionIDs []uint) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(questionIDs))
	for _, id := range questionIDs {
		if question, ok := stub.questions[id]; ok {
			questions = append(questions, question)
		}
	}
	return questions, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	delivered int
	online    map[uint]bool
	published []models.Notification
	unread    []int64
}

func (publisher *recordingPublisher) Online(userID uint) bool {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	return publisher.online[userID]
}

func (publisher *recordingPublisher) PublishNotification(notification models.Notification, unreadCount int64) int {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	publisher.published = append(publisher.published, notification)
	publisher.unread = append(publisher.unread, unreadCount)
	return publisher.delivered
}

func (publisher *recordingPublisher) snapshot() []models.Notification {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	return append([]models.Notification(nil), publisher.published...)
}

type recordingOffline struct {
	deliveries chan models.Notification
	err        error
}

func (offline *recordingOffline) Deliver(_ context.Context, _ models.User, notification models.Notification) error {
	offline.deliveries <- notification
	return offline.err
}
