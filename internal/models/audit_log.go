package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an append-only record of an account event. Rows outlive the
// user they describe, so there is no foreign key.
type AuditLog struct {
	ID        uint              `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    *uint             `json:"userId,omitempty" gorm:"index"`
	Action    string            `json:"action" gorm:"type:varchar(50);not null;index"`
	Details   datatypes.JSONMap `json:"details,omitempty"`
	IPAddress string            `json:"ipAddress" gorm:"type:varchar(45);not null;default:''"`
	RequestID string            `json:"requestId,omitempty" gorm:"type:varchar(36)"`
	CreatedAt time.Time         `json:"createdAt" gorm:"not null;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
