package handlers

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Sosyalles/user-service-api/internal/services"
	"github.com/Sosyalles/user-service-api/pkg/apperror"
	"github.com/Sosyalles/user-service-api/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type AuditHandler struct {
	Audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{Audit: audit}
}

// ExportMyLog returns the caller's account events as CSV or JSON.
func (h *AuditHandler) ExportMyLog(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	format := strings.ToLower(strings.TrimSpace(c.Query("format", "csv")))
	if format != "csv" && format != "json" {
		return apperror.Validation("format must be csv or json")
	}

	logs, err := h.Audit.ListForUser(c.UserContext(), userID, 0)
	if err != nil {
		return fmt.Errorf("load audit log: %w", err)
	}

	if format == "json" {
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "audit-log.json"))
		return utils.Success(c, fiber.StatusOK, logs)
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "audit-log.csv"))

	writer := csv.NewWriter(c.Response().BodyWriter())
	_ = writer.Write([]string{"Timestamp", "Action", "IP Address", "Request ID", "Details"})
	for _, log := range logs {
		_ = writer.Write([]string{
			log.CreatedAt.Format(time.RFC3339),
			log.Action,
			log.IPAddress,
			log.RequestID,
			formatDetails(log.Details),
		})
	}
	writer.Flush()
	return writer.Error()
}

func formatDetails(details map[string]interface{}) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, "; ")
}
