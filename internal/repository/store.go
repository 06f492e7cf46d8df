package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one *gorm.DB handle.
type Store struct {
	db        *gorm.DB
	Users     *UserRepository
	Details   *UserDetailRepository
	AuditLogs *AuditLogRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		Users:     NewUserRepository(db),
		Details:   NewUserDetailRepository(db),
		AuditLogs: NewAuditLogRepository(db),
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
