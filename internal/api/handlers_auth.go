package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/tandem/internal/models"
	"github.com/terraincognita07/tandem/internal/services"
	"go.uber.org/zap"
)

type registerInput struct {
	Email       string `json:"email" form:"email" validate:"required,max=254"`
	Password    string `json:"password" form:"password" validate:"required,max=128"`
	DisplayName string `json:"display_name" form:"display_name" validate:"max=200"`
	Language    string `json:"language" form:"language" validate:"max=10"`
}

type credentialsInput struct {
	Email    string `json:"email" form:"email" validate:"required,max=254"`
	Password string `json:"password" form:"password" validate:"required,max=128"`
}

func (handler *Handler) Register(c *fiber.Ctx) error {
	var input registerInput
	if ok, err := handler.parseInput(c, &input); !ok {
		return err
	}

	user, err := handler.authService.Register(c.UserContext(), services.RegistrationInput{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		Language:    handler.registrationLanguage(c, input.Language),
	})
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	handler.logger.Info("user registered", zap.Uint("user_id", user.ID))
	return handler.issueSession(c, fiber.StatusCreated, user)
}

// registrationLanguage falls back to Accept-Language when the form leaves the
// language blank.
func (handler *Handler) registrationLanguage(c *fiber.Ctx, requested string) string {
	if handler.languages == nil {
		return strings.TrimSpace(requested)
	}
	if strings.TrimSpace(requested) == "" {
		return handler.languages.DetectFromAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage))
	}
	return handler.languages.NormalizeLanguage(requested)
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	var input credentialsInput
	if ok, err := handler.parseInput(c, &input); !ok {
		return err
	}

	key := loginLimiterKey(c, input.Email)
	now := handler.now()
	if handler.loginLimiter.tooManyRecent(key, now, loginAttemptLimit, loginWindow) {
		return apiError(c, fiber.StatusTooManyRequests, "too many login attempts")
	}

	user, err := handler.authService.Authenticate(c.UserContext(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, services.ErrAuthCredentialsInvalid) {
			handler.loginLimiter.addFailure(key, now, loginWindow)
			return apiError(c, fiber.StatusUnauthorized, "invalid email or password")
		}
		return handler.serviceAPIError(c, err)
	}

	handler.loginLimiter.reset(key)
	return handler.issueSession(c, fiber.StatusOK, user)
}

func (handler *Handler) Logout(c *fiber.Ctx) error {
	handler.clearAuthCookie(c)
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) Me(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	return c.JSON(fiber.Map{"user": newUserView(*user)})
}

type telegramLinkInput struct {
	ChatID int64 `json:"chat_id" form:"chat_id"`
}

// LinkTelegram sets the chat used for offline delivery. chat_id 0 unlinks.
func (handler *Handler) LinkTelegram(c *fiber.Ctx) error {
	var input telegramLinkInput
	if ok, err := handler.parseInput(c, &input); !ok {
		return err
	}
	user, _ := currentUser(c)
	if err := handler.authService.LinkTelegram(c.UserContext(), user.ID, input.ChatID); err != nil {
		return handler.serviceAPIError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "linked": input.ChatID != 0})
}

func (handler *Handler) issueSession(c *fiber.Ctx, status int, user models.User) error {
	token, expiresAt, err := handler.buildToken(user, authTokenTTL)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	handler.setAuthCookie(c, token, expiresAt)
	return c.Status(status).JSON(fiber.Map{
		"token":      token,
		"expires_at": expiresAt.UTC(),
		"user":       newUserView(user),
	})
}
