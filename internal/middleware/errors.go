package middleware

import (
	"errors"

	"github.com/Sosyalles/user-service-api/pkg/apperror"
	"github.com/Sosyalles/user-service-api/pkg/logger"
	"github.com/Sosyalles/user-service-api/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

const msgUnexpected = "An unexpected error occurred"

// ErrorHandler turns handler errors into the JSON error envelope. With
// exposeDetail set, server errors carry the wrapped error chain in "detail".
func ErrorHandler(exposeDetail bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := msgUnexpected

		var fiberErr *fiber.Error
		if appErr, ok := apperror.As(err); ok {
			status = appErr.StatusCode()
			if appErr.Kind != apperror.KindInternal {
				message = appErr.Message
			}
		} else if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			message = fiberErr.Message
		}

		details := map[string]interface{}{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"request_id": RequestID(c),
		}
		userID := logger.GetUserIDFromContext(c)
		switch {
		case status >= fiber.StatusInternalServerError && userID != nil:
			logger.ErrorWithUser(*userID, "request_failed", err, details)
		case status >= fiber.StatusInternalServerError:
			logger.Error("request_failed", err, details)
		case userID != nil:
			details["error"] = err.Error()
			logger.WarnWithUser(*userID, "request_rejected", details)
		default:
			details["error"] = err.Error()
			logger.Warn("request_rejected", details)
		}

		if exposeDetail && status >= fiber.StatusInternalServerError {
			return utils.ErrorWithDetail(c, status, message, err.Error())
		}
		return utils.Error(c, status, message)
	}
}
