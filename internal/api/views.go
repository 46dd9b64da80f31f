package api

import (
	"time"

	"github.com/terraincognita07/tandem/internal/models"
	"github.com/terraincognita07/tandem/internal/services"
)

type userView struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Language    string    `json:"language"`
	CreatedAt   time.Time `json:"created_at"`
}

func newUserView(user models.User) userView {
	return userView{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.Name(),
		Language:    user.Language,
		CreatedAt:   user.CreatedAt,
	}
}

// partnerView leaves out the email address.
type partnerView struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
}

type coupleStatusView struct {
	Paired      bool         `json:"paired"`
	CoupleID    uint         `json:"couple_id,omitempty"`
	InviteCode  string       `json:"invite_code,omitempty"`
	Partner     *partnerView `json:"partner,omitempty"`
	ConnectedAt *time.Time   `json:"connected_at,omitempty"`
}

func newCoupleStatusView(status services.CoupleStatus) coupleStatusView {
	view := coupleStatusView{
		Paired:      status.Paired,
		CoupleID:    status.CoupleID,
		InviteCode:  status.InviteCode,
		ConnectedAt: status.ConnectedAt,
	}
	if status.Partner != nil {
		view.Partner = &partnerView{ID: status.Partner.ID, DisplayName: status.Partner.Name()}
	}
	return view
}

type questionView struct {
	ID         uint   `json:"id"`
	Text       string `json:"text"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

func newQuestionView(question models.Question) questionView {
	return questionView{
		ID:         question.ID,
		Text:       question.Text,
		Category:   question.Category,
		Difficulty: question.Difficulty,
	}
}

func newQuestionViews(questions []models.Question) []questionView {
	views := make([]questionView, 0, len(questions))
	for _, question := range questions {
		views = append(views, newQuestionView(question))
	}
	return views
}

type answerView struct {
	ID         uint      `json:"id"`
	QuestionID uint      `json:"question_id"`
	UserID     uint      `json:"user_id"`
	Date       string    `json:"date"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newAnswerView(answer *models.Answer) *answerView {
	if answer == nil {
		return nil
	}
	return &answerView{
		ID:         answer.ID,
		QuestionID: answer.QuestionID,
		UserID:     answer.UserID,
		Date:       answer.Day,
		Text:       answer.AnswerText,
		CreatedAt:  answer.CreatedAt,
		UpdatedAt:  answer.UpdatedAt,
	}
}

type completionView struct {
	QuestionID           uint        `json:"question_id"`
	Date                 string      `json:"date"`
	MyAnswered           bool        `json:"my_answered"`
	PartnerAnswered      bool        `json:"partner_answered"`
	BothAnswered         bool        `json:"both_answered"`
	CanViewPartnerAnswer bool        `json:"can_view_partner_answer"`
	MyAnswer             *answerView `json:"my_answer"`
	PartnerAnswer        *answerView `json:"partner_answer"`
}

func newCompletionView(view services.ViewerCompletion) completionView {
	return completionView{
		QuestionID:           view.QuestionID,
		Date:                 view.Day,
		MyAnswered:           view.MyAnswered,
		PartnerAnswered:      view.PartnerAnswered,
		BothAnswered:         view.BothAnswered,
		CanViewPartnerAnswer: view.CanViewPartnerAnswer,
		MyAnswer:             newAnswerView(view.MyAnswer),
		PartnerAnswer:        newAnswerView(view.PartnerAnswer),
	}
}

type historyEntryView struct {
	Question      questionView `json:"question"`
	MyAnswer      *answerView  `json:"my_answer"`
	PartnerAnswer *answerView  `json:"partner_answer"`
}

type moodView struct {
	ID     uint   `json:"id"`
	UserID uint   `json:"user_id"`
	Level  int    `json:"level"`
	Emoji  string `json:"emoji"`
	Note   string `json:"note"`
	Date   string `json:"date"`
}

func newMoodViews(entries []models.MoodEntry) []moodView {
	views := make([]moodView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, newMoodView(entry))
	}
	return views
}

func newMoodView(entry models.MoodEntry) moodView {
	return moodView{
		ID:     entry.ID,
		UserID: entry.UserID,
		Level:  entry.Level,
		Emoji:  models.MoodEmoji(entry.Level),
		Note:   entry.Note,
		Date:   entry.Day,
	}
}

type memoryView struct {
	ID        uint      `json:"id"`
	CoupleID  uint      `json:"couple_id"`
	CreatedBy uint      `json:"created_by"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

func newMemoryView(memory models.Memory) memoryView {
	return memoryView{
		ID:        memory.ID,
		CoupleID:  memory.CoupleID,
		CreatedBy: memory.CreatedBy,
		Title:     memory.Title,
		Content:   memory.Content,
		Date:      memory.Day,
		CreatedAt: memory.CreatedAt,
	}
}

type ddayView struct {
	ID            uint      `json:"id"`
	CoupleID      uint      `json:"couple_id"`
	CreatedBy     uint      `json:"created_by"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	TargetDate    string    `json:"target_date"`
	DaysRemaining int       `json:"days_remaining"`
	StatusText    string    `json:"status_text"`
	IsPast        bool      `json:"is_past"`
	CreatedAt     time.Time `json:"created_at"`
}

func newDDayView(dday models.DDay, today string) ddayView {
	days := services.DaysRemaining(dday.TargetDay, today)
	return ddayView{
		ID:            dday.ID,
		CoupleID:      dday.CoupleID,
		CreatedBy:     dday.CreatedBy,
		Title:         dday.Title,
		Description:   dday.Description,
		TargetDate:    dday.TargetDay,
		DaysRemaining: days,
		StatusText:    services.DDayStatus(days),
		IsPast:        days < 0,
		CreatedAt:     dday.CreatedAt,
	}
}
