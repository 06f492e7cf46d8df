package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sosyalles/user-service-api/internal/config"
	"github.com/Sosyalles/user-service-api/internal/database"
	"github.com/Sosyalles/user-service-api/internal/handlers"
	"github.com/Sosyalles/user-service-api/internal/metrics"
	"github.com/Sosyalles/user-service-api/internal/repository"
	"github.com/Sosyalles/user-service-api/internal/services"
	"github.com/Sosyalles/user-service-api/internal/storage"
	"github.com/Sosyalles/user-service-api/pkg/logger"
	"github.com/Sosyalles/user-service-api/pkg/utils"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	if err := logger.Init(logger.Options{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
		Console:  !cfg.IsProduction() && os.Getenv("LOG_FORMAT") != "json",
	}); err != nil {
		logger.Fatal("logger_init_failed", err, nil)
	}
	defer logger.Close()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("config_invalid", err, nil)
	}

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Fatal("database_connection_failed", err, map[string]interface{}{
			"host": cfg.DB.Host,
			"name": cfg.DB.Name,
		})
	}

	photos, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("storage_init_failed", err, map[string]interface{}{
			"driver": cfg.Storage.Driver,
		})
	}

	var redisClient *redis.Client
	deps := handlers.Dependencies{Photos: photos}
	if cfg.RateLimit.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			logger.Fatal("redis_connection_failed", err, nil)
		}
		deps.Redis = redisClient
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	store := repository.NewStore(db)
	tokens := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	audit := services.NewAuditService(store)

	deps.Auth = services.NewAuthService(store, tokens, m)
	deps.Profiles = services.NewProfileService(store, photos, services.ProfileOptions{
		PublicURL:    cfg.Server.PublicURL,
		MaxPhotoSize: cfg.Storage.MaxPhotoSize,
	}, m)
	deps.Audit = audit
	deps.Health = services.NewHealthService(db)
	deps.Metrics = m

	app := handlers.NewApp(cfg, deps)
	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":           cfg.Server.Port,
		"address":        listenAddr,
		"env":            cfg.Server.Env,
		"api_prefix":     "/api/" + cfg.Server.APIVersion,
		"storage_driver": cfg.Storage.Driver,
		"shared_limiter": redisClient != nil,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("server_shutting_down", map[string]interface{}{"signal": sig.String()})
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("server_shutdown_failed", err, nil)
		}
	case err := <-errCh:
		if err != nil {
			logger.Error("server_error", err, nil)
		}
	}

	audit.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis_close_failed", err, nil)
		}
	}
	if err := database.Close(db); err != nil {
		logger.Error("database_close_failed", err, nil)
	}
	logger.Info("server_stopped", nil)
}
