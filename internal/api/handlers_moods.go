package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/tandem/internal/services"
)

type moodInput struct {
	Level int    `json:"level" form:"level" validate:"min=1,max=5"`
	Note  string `json:"note" form:"note"`
	Date  string `json:"date" form:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (handler *Handler) RecordMood(c *fiber.Ctx) error {
	var input moodInput
	if ok, err := handler.parseInput(c, &input); !ok {
		return err
	}

	user, _ := currentUser(c)
	entry, created, err := handler.moodService.RecordMood(c.UserContext(), services.MoodInput{
		UserID: user.ID,
		Level:  input.Level,
		Note:   input.Note,
		Day:    input.Date,
	})
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"mood": newMoodView(entry), "created": created})
}

// ListMoods returns the caller's moods and, when paired, the partner's over
// the same range.
func (handler *Handler) ListMoods(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	ctx := c.UserContext()
	from, to := c.Query("from"), c.Query("to")

	mine, err := handler.moodService.ListMoods(ctx, user.ID, from, to)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	partner := make([]moodView, 0)
	partnerID, err := handler.partnerOf(ctx, user.ID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	if partnerID != 0 {
		entries, err := handler.moodService.ListMoods(ctx, partnerID, from, to)
		if err != nil {
			return handler.serviceAPIError(c, err)
		}
		partner = newMoodViews(entries)
	}

	return c.JSON(fiber.Map{"mine": newMoodViews(mine), "partner": partner})
}
