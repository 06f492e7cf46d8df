package handlers

import (
	"github.com/Sosyalles/user-service-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	Health *services.HealthService
}

func NewHealthHandler(health *services.HealthService) *HealthHandler {
	return &HealthHandler{Health: health}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	report := h.Health.Check(c.UserContext())
	status := fiber.StatusOK
	if !report.Healthy() {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}
