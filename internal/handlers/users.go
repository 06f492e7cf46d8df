package handlers

import (
	"fmt"
	"strings"

	"github.com/Sosyalles/user-service-api/internal/services"
	"github.com/Sosyalles/user-service-api/pkg/logger"
	"github.com/Sosyalles/user-service-api/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// UsersHandler serves the admin and internal user lookups guarded by the
// API key.
type UsersHandler struct {
	Profiles  *services.ProfileService
	Audit     *services.AuditService
	Validator *utils.Validator
}

func NewUsersHandler(profiles *services.ProfileService, audit *services.AuditService, v *utils.Validator) *UsersHandler {
	return &UsersHandler{Profiles: profiles, Audit: audit, Validator: v}
}

type statusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

func (h *UsersHandler) List(c *fiber.Ctx) error {
	p, err := utils.ParsePagination(c)
	if err != nil {
		return err
	}
	search := strings.TrimSpace(c.Query("search"))

	page, err := h.Profiles.ListUsers(c.UserContext(), p.Page, p.Limit, search)
	if err != nil {
		return err
	}
	return utils.Paginated(c, page.Users, page.Page, page.Limit, page.Total)
}

func (h *UsersHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	user, err := h.Profiles.GetUserByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, user)
}

func (h *UsersHandler) GetByUsername(c *fiber.Ctx) error {
	user, err := h.Profiles.GetUserByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, user)
}

func (h *UsersHandler) GetByEmail(c *fiber.Ctx) error {
	user, err := h.Profiles.GetUserByEmail(c.UserContext(), c.Params("email"))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, user)
}

func (h *UsersHandler) SetStatus(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req statusRequest
	if err := parseBody(c, h.Validator, &req); err != nil {
		return err
	}
	user, err := h.Profiles.SetActive(c.UserContext(), id, *req.IsActive)
	if err != nil {
		return err
	}

	logger.Info("user_status_changed", map[string]interface{}{
		"user_id":   fmt.Sprint(id),
		"is_active": *req.IsActive,
	})
	h.Audit.LogAsync(auditEntry(c, &id, services.AuditStatusChange, map[string]interface{}{
		"isActive": *req.IsActive,
	}))
	return utils.Success(c, fiber.StatusOK, user)
}
