package utils

import "github.com/gofiber/fiber/v2"

func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// ErrorWithDetail adds a diagnostic detail field to the error envelope.
func ErrorWithDetail(c *fiber.Ctx, status int, message, detail string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
		"detail":  detail,
	})
}

func Paginated(c *fiber.Ctx, data interface{}, page, limit int, total int64) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    data,
		"pagination": fiber.Map{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": TotalPages(total, limit),
		},
	})
}
