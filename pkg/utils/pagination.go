package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/Sosyalles/user-service-api/pkg/apperror"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

func NewPaginationParams(page, limit int) (PaginationParams, error) {
	if page < 1 {
		return PaginationParams{}, apperror.Validation("page must be a positive integer")
	}
	if limit < 1 || limit > MaxLimit {
		return PaginationParams{}, apperror.Validation("limit must be between 1 and 100")
	}
	if page-1 > math.MaxInt32/limit {
		return PaginationParams{}, apperror.Validation("page is out of range")
	}
	return PaginationParams{Page: page, Limit: limit, Offset: (page - 1) * limit}, nil
}

// ParsePagination reads page and limit from the query string. Absent values
// take the defaults; anything else out of range is a validation error.
func ParsePagination(c *fiber.Ctx) (PaginationParams, error) {
	page, err := parseIntDefault(c.Query("page"), DefaultPage)
	if err != nil {
		return PaginationParams{}, apperror.Validation("page must be a positive integer")
	}
	limit, err := parseIntDefault(c.Query("limit"), DefaultLimit)
	if err != nil {
		return PaginationParams{}, apperror.Validation("limit must be between 1 and 100")
	}
	return NewPaginationParams(page, limit)
}

func ApplyPagination(db *gorm.DB, p PaginationParams) *gorm.DB {
	return db.Offset(p.Offset).Limit(p.Limit)
}

func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func parseIntDefault(value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}
