package services

import "github.com/terraincognita07/tandem/internal/models"

func CanViewPartnerAnswer(viewerAnswered bool, partnerAnswered bool) bool {
	return viewerAnswered && partnerAnswered
}

// CompletionStatus is the raw state of one question on one day for a couple.
// It carries both answer texts and must go through GateCompletionForViewer
// before it leaves the service layer.
type CompletionStatus struct {
	QuestionID uint
	Day        string
	UserAID    uint
	UserBID    uint
	AnswerA    *models.Answer
	AnswerB    *models.Answer
}

func (status CompletionStatus) AAnswered() bool {
	return status.AnswerA != nil
}

func (status CompletionStatus) BAnswered() bool {
	return status.AnswerB != nil
}

func (status CompletionStatus) BothAnswered() bool {
	return status.AAnswered() && status.BAnswered()
}

type ViewerCompletion struct {
	QuestionID           uint
	Day                  string
	MyAnswered           bool
	PartnerAnswered      bool
	BothAnswered         bool
	CanViewPartnerAnswer bool
	MyAnswer             *models.Answer
	PartnerAnswer        *models.Answer
}

// GateCompletionForViewer projects status onto viewerID. The partner's answer
// is only included when the viewer has answered too. A viewer who is neither
// A nor B sees nothing.
func GateCompletionForViewer(status CompletionStatus, viewerID uint) ViewerCompletion {
	var mine, theirs *models.Answer
	switch viewerID {
	case status.UserAID:
		mine, theirs = status.AnswerA, status.AnswerB
	case status.UserBID:
		mine, theirs = status.AnswerB, status.AnswerA
	default:
		return ViewerCompletion{QuestionID: status.QuestionID, Day: status.Day}
	}

	view := ViewerCompletion{
		QuestionID:      status.QuestionID,
		Day:             status.Day,
		MyAnswered:      mine != nil,
		PartnerAnswered: theirs != nil,
		BothAnswered:    mine != nil && theirs != nil,
		MyAnswer:        mine,
	}
	view.CanViewPartnerAnswer = CanViewPartnerAnswer(view.MyAnswered, view.PartnerAnswered)
	if view.CanViewPartnerAnswer {
		view.PartnerAnswer = theirs
	}
	return view
}
