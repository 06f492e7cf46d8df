package handlers

import (
	"strconv"
	"strings"

	"github.com/Sosyalles/user-service-api/internal/middleware"
	"github.com/Sosyalles/user-service-api/internal/services"
	"github.com/Sosyalles/user-service-api/pkg/apperror"
	"github.com/Sosyalles/user-service-api/pkg/utils"
	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
)

// parseBody decodes the request body into dst and applies its validate tags.
func parseBody(c *fiber.Ctx, v *utils.Validator, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperror.Validation("Invalid request body")
	}
	if v == nil {
		return nil
	}
	return v.Struct(dst)
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Params(name)), 10, 0)
	if err != nil || id == 0 {
		return 0, apperror.Validation("Invalid user ID")
	}
	return uint(id), nil
}

func currentUserID(c *fiber.Ctx) (uint, error) {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return 0, apperror.Authentication("Authentication required")
	}
	return user.ID, nil
}

func getRequestID(c *fiber.Ctx) string {
	return middleware.RequestID(c)
}

// auditEntry copies everything it takes from the request because entries are
// written after the handler returns.
func auditEntry(c *fiber.Ctx, userID *uint, action string, details map[string]interface{}) services.AuditEntry {
	return services.AuditEntry{
		UserID:    userID,
		Action:    action,
		Details:   details,
		IPAddress: fiberutils.CopyString(c.IP()),
		RequestID: getRequestID(c),
	}
}
