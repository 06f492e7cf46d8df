package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/Sosyalles/user-service-api/internal/database"
	"github.com/Sosyalles/user-service-api/internal/metrics"
	"github.com/Sosyalles/user-service-api/internal/models"
	"github.com/Sosyalles/user-service-api/internal/repository"
	"github.com/Sosyalles/user-service-api/internal/storage"
	"github.com/Sosyalles/user-service-api/pkg/apperror"
	"github.com/Sosyalles/user-service-api/pkg/utils"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testPublicURL = "http://localhost:3000"

type testEnv struct {
	db      *gorm.DB
	store   *repository.Store
	photos  *storage.LocalStore
	tokens  *utils.JWTManager
	metrics *metrics.Metrics
	auth    *AuthService
	profile *ProfileService
}

func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	store := repository.NewStore(db)
	photos, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed creating photo store: %v", err)
	}
	tokens := utils.NewJWTManager("test-secret", time.Hour)
	m := metrics.New()

	return &testEnv{
		db:      db,
		store:   store,
		photos:  photos,
		tokens:  tokens,
		metrics: m,
		auth:    NewAuthService(store, tokens, m),
		profile: NewProfileService(store, photos, ProfileOptions{PublicURL: testPublicURL + "/", MaxPhotoSize: 64 * 1024}, m),
	}
}

func registerTestUser(t *testing.T, env *testEnv, username string) models.UserResponse {
	t.Helper()

	user, err := env.auth.Register(context.Background(), RegisterInput{
		Username:  username,
		Email:     fmt.Sprintf("%s@example.com", username),
		Password:  "secret123",
		FirstName: "Test",
		LastName:  "User",
	})
	if err != nil {
		t.Fatalf("failed registering %s: %v", username, err)
	}
	return user
}

// insertTestUser skips bcrypt for tests that only need rows.
func insertTestUser(t *testing.T, store *repository.Store, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:  username,
		Email:     fmt.Sprintf("%s@example.com", username),
		Password:  "not-a-hash",
		FirstName: "Test",
		LastName:  "User",
		IsActive:  true,
	}
	if err := store.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed creating test user %s: %v", username, err)
	}
	return user
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed encoding png: %v", err)
	}
	return buf.Bytes()
}

func memoryUpload(name string, data []byte) PhotoUpload {
	return PhotoUpload{
		Filename: name,
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func expectKind(t *testing.T, err error, kind apperror.Kind, message string) {
	t.Helper()

	appErr, ok := apperror.As(err)
	if !ok {
		t.Fatalf("expected *AppError of kind %s, got %v", kind, err)
	}
	if appErr.Kind != kind {
		t.Fatalf("expected kind %s, got %s (%s)", kind, appErr.Kind, appErr.Message)
	}
	if message != "" && appErr.Message != message {
		t.Fatalf("expected message %q, got %q", message, appErr.Message)
	}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
