package middleware

import (
	"time"

	"github.com/Sosyalles/user-service-api/pkg/logger"
	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
)

// RequestID returns the id assigned by RequestLogger, or "" outside it.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// handleChainError runs the app error handler so the status written to the
// response is final before it is logged.
func handleChainError(c *fiber.Ctx, err error) {
	if err == nil {
		return
	}
	if hErr := c.App().Config().ErrorHandler(c, err); hErr != nil {
		_ = c.SendStatus(fiber.StatusInternalServerError)
	}
}

func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		// Header values alias the fasthttp buffer, which is reused after the
		// request; the id outlives it in audit rows.
		requestID := fiberutils.CopyString(c.Get(requestIDHeader))
		if requestID == "" || len(requestID) > 64 {
			requestID = logger.GenerateRequestID()
		}
		c.Locals(requestIDKey, requestID)
		c.Set(requestIDHeader, requestID)

		err := c.Next()
		handleChainError(c, err)

		statusCode := c.Response().StatusCode()
		details := map[string]interface{}{
			"method":        c.Method(),
			"path":          c.Path(),
			"status_code":   statusCode,
			"latency_ms":    time.Since(start).Milliseconds(),
			"user_agent":    c.Get(fiber.HeaderUserAgent),
			"ip":            c.IP(),
			"request_body":  logger.GetRequestBodySummary(c),
			"response_body": logger.GetResponseSizeSummary(c),
			"request_id":    requestID,
		}

		userID := logger.GetUserIDFromContext(c)
		switch {
		case userID != nil && statusCode >= 400:
			logger.WarnWithUser(*userID, "http_request", details)
		case userID != nil:
			logger.InfoWithUser(*userID, "http_request", details)
		case statusCode >= 400:
			logger.Warn("http_request", details)
		default:
			logger.Info("http_request", details)
		}
		return nil
	}
}

func SecurityLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		handleChainError(c, err)

		statusCode := c.Response().StatusCode()
		var reason string
		switch statusCode {
		case fiber.StatusUnauthorized:
			reason = "unauthenticated"
		case fiber.StatusForbidden:
			reason = "access_denied"
		case fiber.StatusTooManyRequests:
			reason = "rate_limited"
		default:
			return nil
		}

		details := map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"ip":     c.IP(),
			"reason": reason,
		}
		if userID := logger.GetUserIDFromContext(c); userID != nil {
			logger.WarnWithUser(*userID, reason, details)
		} else {
			logger.Warn(reason, details)
		}
		return nil
	}
}
