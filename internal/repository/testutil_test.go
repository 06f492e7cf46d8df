package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/Sosyalles/user-service-api/internal/database"
	"github.com/Sosyalles/user-service-api/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}
	return NewStore(db)
}

func createTestUser(t *testing.T, store *Store, username, firstName string) *models.User {
	t.Helper()

	user := &models.User{
		Username:  username,
		Email:     fmt.Sprintf("%s@example.com", username),
		Password:  "hash",
		FirstName: firstName,
		LastName:  "Tester",
		IsActive:  true,
	}
	if err := store.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed creating test user %s: %v", username, err)
	}
	return user
}
