package api

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/tandem/internal/services"
	"go.uber.org/zap"
)

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// serviceAPIError maps service sentinels onto HTTP statuses. Anything
// unrecognised is logged and reported as an internal error.
func (handler *Handler) serviceAPIError(c *fiber.Ctx, err error) error {
	var fieldErr *services.ValidationError
	switch {
	case errors.As(err, &fieldErr):
		return apiError(c, fiber.StatusBadRequest, fieldErr.Error())
	case errors.Is(err, services.ErrValidation):
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	case errors.Is(err, services.ErrWeakPassword):
		return apiError(c, fiber.StatusBadRequest, "weak password")
	case errors.Is(err, services.ErrAuthCredentialsInvalid):
		return apiError(c, fiber.StatusBadRequest, "invalid email or password")
	case errors.Is(err, services.ErrAuthEmailTaken):
		return apiError(c, fiber.StatusConflict, "email already registered")
	case errors.Is(err, services.ErrNotFound):
		return apiError(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, services.ErrNotPaired):
		return apiError(c, fiber.StatusConflict, "not paired")
	case errors.Is(err, services.ErrAlreadyPaired):
		return apiError(c, fiber.StatusConflict, "already paired")
	case errors.Is(err, services.ErrConflict):
		return apiError(c, fiber.StatusConflict, "conflict")
	default:
		handler.logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return apiError(c, fiber.StatusInternalServerError, "internal error")
	}
}

func newRequestValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

// parseInput decodes the request body into target and runs its validate
// tags. The returned error is already written to the response.
func (handler *Handler) parseInput(c *fiber.Ctx, target any) (bool, error) {
	if err := c.BodyParser(target); err != nil {
		return false, apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	if err := handler.validate.Struct(target); err != nil {
		return false, apiError(c, fiber.StatusBadRequest, validationMessage(err))
	}
	return true, nil
}

func validationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return "invalid input"
	}
	first := fieldErrors[0]
	switch first.Tag() {
	case "required":
		return first.Field() + ": is required"
	case "min", "gte":
		return first.Field() + ": must be at least " + first.Param()
	case "max", "lte":
		return first.Field() + ": must be at most " + first.Param()
	case "datetime":
		return first.Field() + ": must be a YYYY-MM-DD date"
	default:
		return first.Field() + ": is invalid"
	}
}

func parseUintValue(raw string) (uint, bool) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || parsed == 0 {
		return 0, false
	}
	return uint(parsed), true
}

func parseIDParam(c *fiber.Ctx) (uint, bool) {
	return parseUintValue(c.Params("id"))
}

func queryInt(c *fiber.Ctx, key string) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return parsed
}
