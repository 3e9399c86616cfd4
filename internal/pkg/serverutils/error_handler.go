package serverutils

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors bubbling out of handlers into the
// JSON envelope. fiber.Error keeps its status code; "not found" and "does
// not belong" service errors map to 404/403; everything else is a 500.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		msg := err.Error()
		switch {
		case strings.Contains(msg, "not found"):
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(msg))
		case strings.Contains(msg, "does not belong"):
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(msg))
		default:
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(msg))
		}
	}
}
