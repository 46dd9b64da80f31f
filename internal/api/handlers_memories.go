package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/tandem/internal/services"
)

type memoryInput struct {
	Title   string `json:"title" form:"title" validate:"required"`
	Content string `json:"content" form:"content"`
	Date    string `json:"date" form:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (handler *Handler) AddMemory(c *fiber.Ctx) error {
	var input memoryInput
	if ok, err := handler.parseInput(c, &input); !ok {
		return err
	}

	user, _ := currentUser(c)
	memory, err := handler.memoryService.AddMemory(c.UserContext(), services.MemoryInput{
		UserID:  user.ID,
		Title:   input.Title,
		Content: input.Content,
		Day:     input.Date,
	})
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"memory": newMemoryView(memory)})
}

func (handler *Handler) ListMemories(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	ctx := c.UserContext()
	pairing, err := handler.coupleService.RequirePairing(ctx, user.ID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	memories, err := handler.memoryService.ListMemories(ctx, pairing.CoupleID, queryInt(c, "limit"))
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	views := make([]memoryView, 0, len(memories))
	for _, memory := range memories {
		views = append(views, newMemoryView(memory))
	}
	return c.JSON(fiber.Map{"memories": views})
}
