package handlers

import (
	"github.com/Sosyalles/user-service-api/internal/config"
	"github.com/Sosyalles/user-service-api/internal/metrics"
	"github.com/Sosyalles/user-service-api/internal/middleware"
	"github.com/Sosyalles/user-service-api/internal/services"
	"github.com/Sosyalles/user-service-api/internal/storage"
	"github.com/Sosyalles/user-service-api/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

const multipartOverhead = 1 << 20

type Dependencies struct {
	Auth     *services.AuthService
	Profiles *services.ProfileService
	Audit    *services.AuditService
	Health   *services.HealthService
	Photos   storage.PhotoStore
	// Metrics is optional. Without it /metrics is not mounted.
	Metrics *metrics.Metrics
	// Redis backs the rate limiters when set. Counters stay in memory otherwise.
	Redis     redis.UniversalClient
	Validator *utils.Validator
}

// NewApp builds the Fiber application with every route mounted.
func NewApp(cfg *config.Config, deps Dependencies) *fiber.App {
	if deps.Validator == nil {
		deps.Validator = utils.NewValidator()
	}

	maxPhotoSize := cfg.Storage.MaxPhotoSize
	if maxPhotoSize <= 0 {
		maxPhotoSize = services.DefaultMaxPhotoSize
	}

	app := fiber.New(fiber.Config{
		AppName:      "user-service",
		ErrorHandler: middleware.ErrorHandler(!cfg.IsProduction()),
		BodyLimit:    int(maxPhotoSize)*services.MaxPhotosPerUpload + multipartOverhead,
	})
	app.Use(middleware.RequestLogger())
	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(middleware.SecurityLogger())
	if deps.Metrics != nil {
		app.Use(middleware.Metrics(deps.Metrics))
	}
	app.Use(middleware.CORS(cfg.CORS))

	authHandler := NewAuthHandler(deps.Auth, deps.Audit, deps.Validator)
	profileHandler := NewProfileHandler(deps.Profiles, deps.Audit, deps.Validator)
	usersHandler := NewUsersHandler(deps.Profiles, deps.Audit, deps.Validator)
	auditHandler := NewAuditHandler(deps.Audit)
	healthHandler := NewHealthHandler(deps.Health)
	photosHandler := NewPhotosHandler(deps.Photos)

	requireAuth := middleware.RequireAuth(deps.Auth)
	requireAPIKey := middleware.RequireAPIKey(cfg.APIKey.Key)

	app.Get("/health", healthHandler.Check)
	if deps.Metrics != nil && cfg.Metrics.Enabled {
		app.Get("/metrics", middleware.MetricsHandler(deps.Metrics))
	}
	app.Get(services.PhotoRoute+":name", photosHandler.Serve)

	api := app.Group("/api/"+cfg.Server.APIVersion, middleware.RateLimit(middleware.RateLimitConfig{
		Window:  cfg.RateLimit.Window,
		Max:     cfg.RateLimit.Max,
		Message: middleware.MsgTooManyRequests,
		Storage: limiterStorage(deps.Redis, "ratelimit:api:"),
	}))
	authLimiter := middleware.RateLimit(middleware.RateLimitConfig{
		Window:  cfg.RateLimit.AuthWindow,
		Max:     cfg.RateLimit.AuthMax,
		Message: middleware.MsgTooManyAuthAttempts,
		Storage: limiterStorage(deps.Redis, "ratelimit:auth:"),
	})

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authLimiter, authHandler.Register)
	authRoutes.Post("/login", authLimiter, authHandler.Login)
	authRoutes.Post("/change-password", requireAuth, authHandler.ChangePassword)

	profileRoutes := api.Group("/profile")
	profileRoutes.Get("/details/:username", profileHandler.GetPublicProfile)
	profileRoutes.Get("/", requireAuth, profileHandler.GetProfile)
	profileRoutes.Patch("/", requireAuth, profileHandler.UpdateProfile)
	profileRoutes.Delete("/", requireAuth, profileHandler.DeleteProfile)
	profileRoutes.Get("/detail", requireAuth, profileHandler.GetDetail)
	profileRoutes.Patch("/detail", requireAuth, profileHandler.UpdateDetail)
	profileRoutes.Post("/photos", requireAuth, profileHandler.UploadPhotos)
	profileRoutes.Delete("/photos", requireAuth, profileHandler.DeletePhotos)
	profileRoutes.Get("/audit-log", requireAuth, auditHandler.ExportMyLog)

	adminRoutes := api.Group("/admin", requireAPIKey)
	adminRoutes.Get("/users", usersHandler.List)

	internalRoutes := api.Group("/internal/users", requireAPIKey)
	internalRoutes.Get("/list", usersHandler.List)
	internalRoutes.Get("/username/:username", usersHandler.GetByUsername)
	internalRoutes.Get("/email/:email", usersHandler.GetByEmail)
	internalRoutes.Get("/:id", usersHandler.Get)
	internalRoutes.Patch("/:id/status", usersHandler.SetStatus)

	return app
}

func limiterStorage(client redis.UniversalClient, prefix string) fiber.Storage {
	if client == nil {
		return nil
	}
	return middleware.NewRedisStorage(client, prefix)
}
