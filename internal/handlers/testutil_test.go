package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sosyalles/user-service-api/internal/config"
	"github.com/Sosyalles/user-service-api/internal/database"
	"github.com/Sosyalles/user-service-api/internal/metrics"
	"github.com/Sosyalles/user-service-api/internal/repository"
	"github.com/Sosyalles/user-service-api/internal/services"
	"github.com/Sosyalles/user-service-api/internal/storage"
	"github.com/Sosyalles/user-service-api/pkg/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	testAPIKey    = "test-api-key"
	testPublicURL = "http://localhost:3000"
)

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	store  *repository.Store
	photos *storage.LocalStore
	audit  *services.AuditService
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{APIVersion: "v1", Env: "test", PublicURL: testPublicURL},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpiresIn: time.Hour},
		APIKey: config.APIKeyConfig{Key: testAPIKey},
		RateLimit: config.RateLimitConfig{
			Window:     time.Minute,
			Max:        1000,
			AuthWindow: time.Minute,
			AuthMax:    1000,
		},
		CORS:    config.CORSConfig{Origin: "*"},
		Storage: config.StorageConfig{Driver: "local", MaxPhotoSize: 64 * 1024},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return setupTestEnvWithConfig(t, testConfig())
}

func setupTestEnvWithConfig(t *testing.T, cfg *config.Config) *testEnv {
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

	photos, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed creating photo store: %v", err)
	}

	store := repository.NewStore(db)
	m := metrics.New()
	tokens := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	audit := services.NewAuditService(store)
	t.Cleanup(audit.Close)

	app := NewApp(cfg, Dependencies{
		Auth: services.NewAuthService(store, tokens, m),
		Profiles: services.NewProfileService(store, photos, services.ProfileOptions{
			PublicURL:    cfg.Server.PublicURL,
			MaxPhotoSize: cfg.Storage.MaxPhotoSize,
		}, m),
		Audit:   audit,
		Health:  services.NewHealthService(db),
		Photos:  photos,
		Metrics: m,
	})

	return &testEnv{app: app, db: db, store: store, photos: photos, audit: audit}
}

type apiResponse struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Detail     string          `json:"detail"`
	Pagination *struct {
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		Total      int64 `json:"total"`
		TotalPages int   `json:"totalPages"`
	} `json:"pagination"`
}

func (r apiResponse) decode(t *testing.T, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(r.Data, dst); err != nil {
		t.Fatalf("failed decoding data %s: %v", r.Data, err)
	}
}

func (env *testEnv) do(t *testing.T, req *http.Request) (int, apiResponse, []byte) {
	t.Helper()

	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var body apiResponse
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("failed decoding response %q: %v", raw, err)
		}
	}
	return resp.StatusCode, body, raw
}

func (env *testEnv) doJSON(t *testing.T, method, path, token string, payload interface{}) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed encoding payload: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	status, body, _ := env.do(t, req)
	return status, body
}

func (env *testEnv) doAPIKey(t *testing.T, method, path string, payload interface{}) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	if payload != nil {
		encoded, _ := json.Marshal(payload)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-KEY", testAPIKey)
	status, body, _ := env.do(t, req)
	return status, body
}

type userBody struct {
	ID           uint    `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	ProfilePhoto *string `json:"profilePhoto"`
	IsActive     bool    `json:"isActive"`
}

func registerPayload(username string) map[string]string {
	return map[string]string{
		"username":  username,
		"email":     fmt.Sprintf("%s@example.com", username),
		"password":  "secret123",
		"firstName": "Test",
		"lastName":  "User",
	}
}

// registerAndLogin returns the new user's id and a bearer token.
func registerAndLogin(t *testing.T, env *testEnv, username string) (uint, string) {
	t.Helper()

	status, body := env.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", registerPayload(username))
	if status != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d (%s)", username, status, body.Error)
	}
	var user userBody
	body.decode(t, &user)

	status, body = env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    fmt.Sprintf("%s@example.com", username),
		"password": "secret123",
	})
	if status != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (%s)", username, status, body.Error)
	}
	var login struct {
		Token string `json:"token"`
	}
	body.decode(t, &login)
	return user.ID, login.Token
}

func multipartPhotos(t *testing.T, files map[string][]byte) (io.Reader, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for name, data := range files {
		part, err := writer.CreateFormFile("photos", name)
		if err != nil {
			t.Fatalf("failed creating form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("failed writing form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed closing multipart writer: %v", err)
	}
	return buf, writer.FormDataContentType()
}

// gifBytes is a 1x1 transparent GIF.
var gifBytes = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}
