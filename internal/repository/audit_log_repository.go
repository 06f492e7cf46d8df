package repository

import (
	"context"

	"github.com/Sosyalles/user-service-api/internal/models"
	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByUser returns the user's most recent entries, newest first.
func (r *AuditLogRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.AuditLog, error) {
	logs := make([]models.AuditLog, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
