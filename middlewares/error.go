package middlewares

import (
	"errors"

	"contratos-backend/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// 1) Fiber errors (use their status code + message)
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
		}

		// 2) Validation errors (422 + per-field info)
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			out := make(map[string]string, len(ve))
			for _, fe := range ve {
				out[fe.Field()] = fe.Tag()
			}
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "validation failed",
				"errors":  out,
			})
		}

		// 3) Domain errors
		err = services.ClassifyDBError(err)
		var de *services.DomainError
		if errors.As(err, &de) {
			status := fiber.StatusInternalServerError
			switch {
			case errors.Is(err, services.ErrNotFound):
				status = fiber.StatusNotFound
			case errors.Is(err, services.ErrInvariant):
				status = fiber.StatusUnprocessableEntity
			case errors.Is(err, services.ErrDuplicate):
				status = fiber.StatusConflict
			case errors.Is(err, services.ErrTransient):
				c.Set(fiber.HeaderRetryAfter, "1")
				requestLogger(c, log).WithError(err).Warn("transient failure")
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "temporarily unavailable, retry"})
			}
			return c.Status(status).JSON(fiber.Map{"message": de.Message})
		}

		// 4) Unknown errors (500)
		requestLogger(c, log).WithError(err).Error("internal error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "internal server error",
		})
	}
}
