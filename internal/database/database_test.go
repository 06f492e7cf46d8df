package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Sosyalles/user-service-api/internal/config"
	"github.com/Sosyalles/user-service-api/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), GormConfig())
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DBConfig{Host: "db", Port: "5433", User: "svc", Password: "pw", Name: "users", SSLMode: "require"})
	for _, part := range []string{"host=db", "port=5433", "user=svc", "password=pw", "dbname=users", "sslmode=require"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("expected DSN to contain %q, got %q", part, dsn)
		}
	}
}

func TestMigrateAndPing(t *testing.T) {
	db := openSQLite(t)

	if err := ConfigurePool(db, config.DBConfig{MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxLifetime: time.Hour}); err != nil {
		t.Fatalf("ConfigurePool failed: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	for _, table := range []interface{}{&models.User{}, &models.UserDetail{}} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("expected table for %T to exist", table)
		}
	}
	if !db.Migrator().HasIndex(&models.UserDetail{}, "UserID") {
		t.Fatal("expected unique index on user_details.user_id")
	}
	if err := Ping(context.Background(), db); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestPingClosedPool(t *testing.T) {
	db := openSQLite(t)
	if err := Close(db); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := Ping(context.Background(), db); err == nil {
		t.Fatal("expected ping on closed pool to fail")
	}
}

func TestConnectRedisRejectsBadURL(t *testing.T) {
	if _, err := ConnectRedis(context.Background(), "http://not-redis"); err == nil {
		t.Fatal("expected error for non redis url")
	}
}
