package handlers

import (
	"github.com/Sosyalles/user-service-api/internal/services"
	"github.com/Sosyalles/user-service-api/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	Profiles  *services.ProfileService
	Audit     *services.AuditService
	Validator *utils.Validator
}

func NewProfileHandler(profiles *services.ProfileService, audit *services.AuditService, v *utils.Validator) *ProfileHandler {
	return &ProfileHandler{Profiles: profiles, Audit: audit, Validator: v}
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	user, err := h.Profiles.GetProfile(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, user)
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req services.UpdateProfileInput
	if err := parseBody(c, h.Validator, &req); err != nil {
		return err
	}
	user, err := h.Profiles.UpdateProfile(c.UserContext(), userID, req)
	if err != nil {
		return err
	}

	h.Audit.LogAsync(auditEntry(c, &userID, services.AuditProfileUpdate, nil))
	return utils.Success(c, fiber.StatusOK, user)
}

func (h *ProfileHandler) DeleteProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.Profiles.DeleteUser(c.UserContext(), userID); err != nil {
		return err
	}

	h.Audit.LogAsync(auditEntry(c, &userID, services.AuditAccountDelete, nil))
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "User deleted successfully"})
}

func (h *ProfileHandler) GetDetail(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	detail, err := h.Profiles.GetDetail(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, detail)
}

func (h *ProfileHandler) UpdateDetail(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req services.UpdateDetailInput
	if err := parseBody(c, nil, &req); err != nil {
		return err
	}
	detail, err := h.Profiles.UpdateDetail(c.UserContext(), userID, req)
	if err != nil {
		return err
	}

	h.Audit.LogAsync(auditEntry(c, &userID, services.AuditDetailUpdate, nil))
	return utils.Success(c, fiber.StatusOK, detail)
}

// GetPublicProfile accepts a username or a numeric user id.
func (h *ProfileHandler) GetPublicProfile(c *fiber.Ctx) error {
	profile, err := h.Profiles.GetProfileWithDetails(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, profile)
}
