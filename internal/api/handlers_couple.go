package api

import (
	"github.com/gofiber/fiber/v2"
)

type joinCoupleInput struct {
	InviteCode string `json:"invite_code" form:"invite_code" validate:"required,max=16"`
}

func (handler *Handler) CoupleStatus(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	status, err := handler.coupleService.Status(c.UserContext(), user.ID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	return c.JSON(newCoupleStatusView(status))
}

func (handler *Handler) CreateInvite(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	code, err := handler.coupleService.CreateInvite(c.UserContext(), user.ID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	return c.JSON(fiber.Map{"invite_code": code})
}

func (handler *Handler) JoinCouple(c *fiber.Ctx) error {
	var input joinCoupleInput
	if ok, err := handler.parseInput(c, &input); !ok {
		return err
	}

	user, _ := currentUser(c)
	pairing, err := handler.coupleService.JoinWithCode(c.UserContext(), user.ID, input.InviteCode)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	return c.JSON(fiber.Map{
		"paired":     true,
		"couple_id":  pairing.CoupleID,
		"partner_id": pairing.PartnerID,
	})
}

func (handler *Handler) DisconnectCouple(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	if err := handler.coupleService.Disconnect(c.UserContext(), user.ID); err != nil {
		return handler.serviceAPIError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
