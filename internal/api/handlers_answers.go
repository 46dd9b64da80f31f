package api

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/tandem/internal/models"
	"github.com/terraincognita07/tandem/internal/realtime"
	"github.com/terraincognita07/tandem/internal/services"
	"go.uber.org/zap"
)

type answerInput struct {
	QuestionID uint   `json:"question_id" form:"question_id" validate:"required,gt=0"`
	Date       string `json:"date" form:"date" validate:"omitempty,datetime=2006-01-02"`
	Text       string `json:"text" form:"text" validate:"required"`
}

func (handler *Handler) SubmitAnswer(c *fiber.Ctx) error {
	var input answerInput
	if ok, err := handler.parseInput(c, &input); !ok {
		return err
	}

	user, _ := currentUser(c)
	ctx := c.UserContext()
	answer, result, err := handler.answerService.Submit(ctx, services.AnswerInput{
		QuestionID: input.QuestionID,
		UserID:     user.ID,
		Day:        input.Date,
		Text:       input.Text,
	})
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	bothAnswered := false
	if result == services.SubmitCreated {
		bothAnswered = handler.announceCompletion(ctx, user.ID, answer)
	}

	status := fiber.StatusOK
	if result == services.SubmitCreated {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"status":        string(result),
		"answer":        newAnswerView(&answer),
		"both_answered": bothAnswered,
	})
}

// announceCompletion tells the couple channel that both partners have now
// answered. The event carries no answer content.
func (handler *Handler) announceCompletion(ctx context.Context, userID uint, answer models.Answer) bool {
	pairing, paired, err := handler.coupleService.Resolve(ctx, userID)
	if err != nil || !paired {
		return false
	}
	status, err := handler.answerService.ViewerStatus(ctx, answer.QuestionID, answer.Day, userID, pairing.PartnerID)
	if err != nil {
		handler.logger.Warn("completion check failed", zap.Uint("user_id", userID), zap.Error(err))
		return false
	}
	if !status.BothAnswered {
		return false
	}
	handler.hub.BroadcastCouple(pairing.CoupleID, realtime.Envelope{
		Event: realtime.EventAnswerCompleted,
		Data:  realtime.AnswerCompletedPayload{QuestionID: answer.QuestionID, Date: answer.Day},
	})
	return true
}

func (handler *Handler) answerQuery(c *fiber.Ctx) (uint, string, error) {
	questionID, ok := parseUintValue(c.Query("question_id"))
	if !ok {
		return 0, "", &services.ValidationError{Field: "question_id", Reason: "is required"}
	}
	day, err := services.ResolveDay(c.Query("date"), "date", handler.now(), handler.location)
	if err != nil {
		return 0, "", err
	}
	return questionID, day, nil
}

// partnerOf returns 0 for an unpaired user.
func (handler *Handler) partnerOf(ctx context.Context, userID uint) (uint, error) {
	partnerID, _, err := handler.coupleService.ResolvePartner(ctx, userID)
	return partnerID, err
}

func (handler *Handler) AnswerStatus(c *fiber.Ctx) error {
	questionID, day, err := handler.answerQuery(c)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	user, _ := currentUser(c)
	ctx := c.UserContext()
	partnerID, err := handler.partnerOf(ctx, user.ID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	status, err := handler.answerService.ViewerStatus(ctx, questionID, day, user.ID, partnerID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	return c.JSON(newCompletionView(status))
}

func (handler *Handler) PartnerAnswer(c *fiber.Ctx) error {
	questionID, day, err := handler.answerQuery(c)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	user, _ := currentUser(c)
	ctx := c.UserContext()
	pairing, err := handler.coupleService.RequirePairing(ctx, user.ID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	answer, err := handler.answerService.PartnerAnswerIfVisible(ctx, questionID, day, user.ID, pairing.PartnerID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	return c.JSON(fiber.Map{"answer": newAnswerView(answer)})
}

func (handler *Handler) AnswerHistory(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	ctx := c.UserContext()
	partnerID, err := handler.partnerOf(ctx, user.ID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	page, err := handler.answerService.History(ctx, user.ID, partnerID, services.HistoryFilter{
		Category: strings.TrimSpace(c.Query("category")),
		FromDay:  c.Query("from"),
		ToDay:    c.Query("to"),
		Page:     queryInt(c, "page"),
		PerPage:  queryInt(c, "per_page"),
	})
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	entries := make([]historyEntryView, 0, len(page.Entries))
	for _, entry := range page.Entries {
		mine := entry.MyAnswer
		entries = append(entries, historyEntryView{
			Question:      newQuestionView(entry.Question),
			MyAnswer:      newAnswerView(&mine),
			PartnerAnswer: newAnswerView(entry.PartnerAnswer),
		})
	}
	return c.JSON(fiber.Map{
		"entries":  entries,
		"total":    page.Total,
		"page":     page.Page,
		"per_page": page.PerPage,
	})
}

func (handler *Handler) AnswerStats(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	ctx := c.UserContext()
	partnerID, err := handler.partnerOf(ctx, user.ID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	stats, err := handler.answerService.Stats(ctx, user.ID, partnerID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	return c.JSON(fiber.Map{
		"my_total":        stats.MyTotal,
		"partner_total":   stats.PartnerTotal,
		"both_answered":   stats.BothAnswered,
		"last_seven_days": stats.LastSevenDay,
	})
}
