package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/tandem/internal/services"
)

type ddayInput struct {
	Title       string `json:"title" form:"title" validate:"required"`
	Description string `json:"description" form:"description"`
	TargetDate  string `json:"target_date" form:"target_date" validate:"required,datetime=2006-01-02"`
}

func (input ddayInput) toService(userID uint) services.DDayInput {
	return services.DDayInput{
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Day:         input.TargetDate,
	}
}

func (handler *Handler) ListDDays(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	ddays, err := handler.ddayService.List(c.UserContext(), user.ID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	today := handler.ddayService.Today()
	views := make([]ddayView, 0, len(ddays))
	for _, dday := range ddays {
		views = append(views, newDDayView(dday, today))
	}
	return c.JSON(fiber.Map{"ddays": views})
}

func (handler *Handler) CreateDDay(c *fiber.Ctx) error {
	var input ddayInput
	if ok, err := handler.parseInput(c, &input); !ok {
		return err
	}

	user, _ := currentUser(c)
	dday, err := handler.ddayService.Create(c.UserContext(), input.toService(user.ID))
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"dday": newDDayView(dday, handler.ddayService.Today())})
}

func (handler *Handler) UpdateDDay(c *fiber.Ctx) error {
	ddayID, ok := parseIDParam(c)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid dday id")
	}
	var input ddayInput
	if ok, err := handler.parseInput(c, &input); !ok {
		return err
	}

	user, _ := currentUser(c)
	dday, err := handler.ddayService.Update(c.UserContext(), ddayID, input.toService(user.ID))
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	return c.JSON(fiber.Map{"dday": newDDayView(dday, handler.ddayService.Today())})
}

func (handler *Handler) DeleteDDay(c *fiber.Ctx) error {
	ddayID, ok := parseIDParam(c)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid dday id")
	}
	user, _ := currentUser(c)
	if err := handler.ddayService.Delete(c.UserContext(), user.ID, ddayID); err != nil {
		return handler.serviceAPIError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}
