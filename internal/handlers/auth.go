package handlers

import (
	"fmt"

	"github.com/Sosyalles/user-service-api/internal/services"
	"github.com/Sosyalles/user-service-api/pkg/apperror"
	"github.com/Sosyalles/user-service-api/pkg/logger"
	"github.com/Sosyalles/user-service-api/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth      *services.AuthService
	Audit     *services.AuditService
	Validator *utils.Validator
}

func NewAuthHandler(auth *services.AuthService, audit *services.AuditService, v *utils.Validator) *AuthHandler {
	return &AuthHandler{Auth: auth, Audit: audit, Validator: v}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := parseBody(c, h.Validator, &req); err != nil {
		return err
	}

	user, err := h.Auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	h.Audit.LogAsync(auditEntry(c, &user.ID, services.AuditRegister, map[string]interface{}{
		"username": user.Username,
	}))
	return utils.Success(c, fiber.StatusCreated, user)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := parseBody(c, h.Validator, &req); err != nil {
		return err
	}

	result, err := h.Auth.Login(c.UserContext(), req)
	if err != nil {
		if apperror.Is(err, apperror.KindAuthentication) {
			logger.Warn("login_failed", map[string]interface{}{
				"ip":         c.IP(),
				"request_id": getRequestID(c),
			})
			h.Audit.LogAsync(auditEntry(c, nil, services.AuditLoginFailed, nil))
		}
		return err
	}

	logger.InfoWithUser(fmt.Sprint(result.User.ID), "user_logged_in", map[string]interface{}{
		"ip": c.IP(),
	})
	h.Audit.LogAsync(auditEntry(c, &result.User.ID, services.AuditLogin, nil))
	return utils.Success(c, fiber.StatusOK, result)
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req services.ChangePasswordInput
	if err := parseBody(c, h.Validator, &req); err != nil {
		return err
	}
	if err := h.Auth.ChangePassword(c.UserContext(), userID, req); err != nil {
		return err
	}

	h.Audit.LogAsync(auditEntry(c, &userID, services.AuditPasswordChange, nil))
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Password changed successfully"})
}
