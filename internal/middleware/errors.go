package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/vitecommerce/internal/apperror"
	"github.com/example/vitecommerce/internal/logging"
)

type errorResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
	Stack   string                `json:"stack,omitempty"`
}

// ErrorHandler renders every error returned by a handler as the common
// JSON error body. Stacks are only included outside production.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		resp := errorResponse{Message: "Internal server error"}

		var (
			appErr   *apperror.Error
			fiberErr *fiber.Error
		)
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			status = fiber.StatusServiceUnavailable
			resp.Message = "Request timed out"
		case errors.As(err, &appErr):
			status = appErr.Kind.Status()
			resp.Errors = appErr.Fields
			if appErr.Kind != apperror.KindInternal {
				resp.Message = appErr.Message
			}
			resp.Stack = appErr.Stack()
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			resp.Message = fiberErr.Message
		case errors.Is(err, gorm.ErrRecordNotFound):
			status = fiber.StatusNotFound
			resp.Message = "Resource not found"
		case errors.Is(err, gorm.ErrDuplicatedKey):
			status = fiber.StatusConflict
			resp.Message = "Resource already exists"
		}

		if status >= fiber.StatusInternalServerError {
			logging.Error().Err(err).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("request failed")
		}

		if production {
			resp.Stack = ""
		}
		return c.Status(status).JSON(resp)
	}
}

// NotFound answers requests that matched no route.
func NotFound() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found - "+c.OriginalURL())
	}
}
