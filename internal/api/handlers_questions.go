package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/tandem/internal/services"
)

func (handler *Handler) ListQuestions(c *fiber.Ctx) error {
	questions, err := handler.questionService.List(c.UserContext(), services.QuestionFilter{
		Category:   strings.TrimSpace(c.Query("category")),
		Difficulty: strings.TrimSpace(c.Query("difficulty")),
	})
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	return c.JSON(fiber.Map{"questions": newQuestionViews(questions)})
}

func (handler *Handler) QuestionCategories(c *fiber.Ctx) error {
	categories := make([]fiber.Map, 0)
	for _, info := range handler.questionService.Categories() {
		categories = append(categories, fiber.Map{
			"key":         info.Key,
			"name":        info.Name,
			"description": info.Description,
			"emoji":       info.Emoji,
		})
	}
	difficulties := make([]fiber.Map, 0)
	for _, info := range handler.questionService.Difficulties() {
		difficulties = append(difficulties, fiber.Map{
			"key":         info.Key,
			"name":        info.Name,
			"description": info.Description,
			"color":       info.Color,
		})
	}
	return c.JSON(fiber.Map{"categories": categories, "difficulties": difficulties})
}

func (handler *Handler) GetQuestion(c *fiber.Ctx) error {
	questionID, ok := parseIDParam(c)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid question id")
	}
	question, err := handler.questionService.Get(c.UserContext(), questionID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	return c.JSON(newQuestionView(question))
}

// DailyAssignment returns the couple's question for the requested day,
// assigning one on first access. A coupleId that is not the caller's couple
// is reported as not found.
func (handler *Handler) DailyAssignment(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	ctx := c.UserContext()

	pairing, err := handler.coupleService.RequirePairing(ctx, user.ID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	if raw := strings.TrimSpace(c.Query("coupleId")); raw != "" {
		requested, ok := parseUintValue(raw)
		if !ok || requested != pairing.CoupleID {
			return apiError(c, fiber.StatusNotFound, "not found")
		}
	}

	day, err := services.ResolveDay(c.Query("date"), "date", handler.now(), handler.location)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	assigned, err := handler.assignmentService.GetOrCreate(ctx, pairing.CoupleID, day)
	if errors.Is(err, services.ErrNoQuestionAvailable) {
		return c.JSON(fiber.Map{"available": false, "date": day})
	}
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	status, err := handler.answerService.ViewerStatus(ctx, assigned.Question.ID, day, user.ID, pairing.PartnerID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	return c.JSON(fiber.Map{
		"available": true,
		"created":   assigned.Created,
		"couple_id": pairing.CoupleID,
		"date":      assigned.Assignment.Day,
		"question":  newQuestionView(assigned.Question),
		"status":    newCompletionView(status),
	})
}
