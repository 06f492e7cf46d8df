package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/Sosyalles/user-service-api/internal/config"
	"github.com/Sosyalles/user-service-api/internal/models"
	"github.com/Sosyalles/user-service-api/pkg/apperror"
	"github.com/Sosyalles/user-service-api/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const (
	currentUserKey = "currentUser"
	userIDKey      = "userID"
	apiKeyHeader   = "X-API-KEY"
)

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

func CORS(cfg config.CORSConfig) fiber.Handler {
	origins := cfg.Origin
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-KEY",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	})
}

func RequireAuth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			logger.Warn("jwt_missing_header", map[string]interface{}{
				"ip":   c.IP(),
				"path": c.Path(),
			})
			return apperror.Authentication("Authorization header is missing")
		}

		parts := strings.Fields(authHeader)
		if len(parts) == 0 || parts[0] != "Bearer" || len(parts) > 2 {
			logger.Warn("jwt_invalid_format", map[string]interface{}{
				"ip":          c.IP(),
				"path":        c.Path(),
				"auth_header": authHeader[:min(len(authHeader), 20)] + "...",
			})
			return apperror.Authentication("Invalid token format. Use Bearer token")
		}
		if len(parts) == 1 {
			return apperror.Authentication("Token is missing")
		}
		token := parts[1]

		user, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			logger.Warn("jwt_validation_failed", map[string]interface{}{
				"ip":    c.IP(),
				"path":  c.Path(),
				"error": err.Error(),
			})
			return err
		}

		c.Locals(currentUserKey, user)
		c.Locals(userIDKey, fmt.Sprint(user.ID))
		return c.Next()
	}
}

// RequireAPIKey guards internal routes with a static key compared in
// constant time.
func RequireAPIKey(key string) fiber.Handler {
	expected := []byte(key)
	return func(c *fiber.Ctx) error {
		provided := c.Get(apiKeyHeader)
		if provided == "" {
			return apperror.Forbidden("X-API-KEY header is missing")
		}
		if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
			logger.Warn("api_key_rejected", map[string]interface{}{
				"ip":   c.IP(),
				"path": c.Path(),
			})
			return apperror.Forbidden("Invalid API key")
		}
		return c.Next()
	}
}

func GetCurrentUser(c *fiber.Ctx) *models.User {
	user, ok := c.Locals(currentUserKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
