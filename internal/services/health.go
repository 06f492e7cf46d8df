package services

import (
	"context"
	"time"

	"github.com/Sosyalles/user-service-api/internal/database"
	"github.com/Sosyalles/user-service-api/pkg/logger"
	"gorm.io/gorm"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

type HealthDetails struct {
	Database  bool      `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

type HealthReport struct {
	Status  string        `json:"status"`
	Details HealthDetails `json:"details"`
}

func (r HealthReport) Healthy() bool {
	return r.Status == StatusHealthy
}

type HealthService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewHealthService(db *gorm.DB) *HealthService {
	return &HealthService{db: db, now: time.Now}
}

func (s *HealthService) Check(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:  StatusHealthy,
		Details: HealthDetails{Database: true, Timestamp: s.now().UTC()},
	}
	if err := database.Ping(ctx, s.db); err != nil {
		logger.Error("health_check_failed", err, nil)
		report.Status = StatusUnhealthy
		report.Details.Database = false
	}
	return report
}
