package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Sosyalles/user-service-api/pkg/apperror"
	"github.com/Sosyalles/user-service-api/pkg/utils"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a bcrypt hash and an empty detail row", func(t *testing.T) {
		env := setupTestEnv(t)

		user, err := env.auth.Register(ctx, RegisterInput{
			Username:  "  alice ",
			Email:     " Alice@Example.COM ",
			Password:  "secret123",
			FirstName: "Alice",
			LastName:  "Liddell",
		})
		if err != nil {
			t.Fatalf("unexpected register error: %v", err)
		}
		if user.Username != "alice" || user.Email != "alice@example.com" {
			t.Fatalf("expected trimmed and normalized identity, got %q %q", user.Username, user.Email)
		}
		if !user.IsActive {
			t.Fatal("expected new user to be active")
		}

		stored, err := env.store.Users.FindByID(ctx, user.ID)
		if err != nil || stored == nil {
			t.Fatalf("failed loading stored user: %v", err)
		}
		if stored.Password == "secret123" {
			t.Fatal("expected password to be hashed")
		}
		if !utils.CheckPassword("secret123", stored.Password) {
			t.Fatal("expected stored hash to match the plaintext")
		}

		detail, err := env.store.Details.FindByUserID(ctx, user.ID)
		if err != nil || detail == nil {
			t.Fatalf("expected detail row, got %v %v", detail, err)
		}
		if len(detail.Interests) != 0 || !detail.EmailNotifications || detail.WeeklyRecommendations {
			t.Fatalf("unexpected detail defaults: %+v", detail)
		}
	})

	t.Run("rejects duplicate email and username", func(t *testing.T) {
		env := setupTestEnv(t)
		registerTestUser(t, env, "bob")

		_, err := env.auth.Register(ctx, RegisterInput{
			Username: "bobby", Email: "BOB@example.com", Password: "secret123", FirstName: "Bob", LastName: "Builder",
		})
		expectKind(t, err, apperror.KindConflict, "Email already exists")

		_, err = env.auth.Register(ctx, RegisterInput{
			Username: "bob", Email: "other@example.com", Password: "secret123", FirstName: "Bob", LastName: "Builder",
		})
		expectKind(t, err, apperror.KindConflict, "Username already exists")
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email and wrong password give the same error", func(t *testing.T) {
		env := setupTestEnv(t)
		registerTestUser(t, env, "carol")

		_, unknownErr := env.auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret123"})
		_, wrongErr := env.auth.Login(ctx, LoginInput{Email: "carol@example.com", Password: "wrong-password"})

		expectKind(t, unknownErr, apperror.KindAuthentication, "Invalid email or password")
		expectKind(t, wrongErr, apperror.KindAuthentication, "Invalid email or password")
	})

	t.Run("unknown email still runs a hash comparison", func(t *testing.T) {
		env := setupTestEnv(t)
		var compared []string
		env.auth.checkPassword = func(password, hash string) bool {
			compared = append(compared, hash)
			return utils.CheckPassword(password, hash)
		}

		_, err := env.auth.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "secret123"})
		expectKind(t, err, apperror.KindAuthentication, "Invalid email or password")
		if len(compared) != 1 || compared[0] != utils.DummyPasswordHash() {
			t.Fatalf("expected one comparison against the placeholder hash, got %v", compared)
		}
	})

	t.Run("issues a token for the user and records the login", func(t *testing.T) {
		env := setupTestEnv(t)
		registered := registerTestUser(t, env, "dave")
		loginAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		env.auth.now = func() time.Time { return loginAt }

		result, err := env.auth.Login(ctx, LoginInput{Email: "DAVE@example.com", Password: "secret123"})
		if err != nil {
			t.Fatalf("unexpected login error: %v", err)
		}
		if result.User.ID != registered.ID {
			t.Fatalf("expected user %d, got %d", registered.ID, result.User.ID)
		}

		claims, err := env.tokens.Validate(result.Token)
		if err != nil {
			t.Fatalf("expected valid token, got %v", err)
		}
		if claims.UserID != registered.ID || claims.Username != "dave" {
			t.Fatalf("unexpected claims: %+v", claims)
		}

		user, _ := env.store.Users.FindByID(ctx, registered.ID)
		if user.LastLoginAt == nil || !user.LastLoginAt.Equal(loginAt) {
			t.Fatalf("expected user last login %v, got %v", loginAt, user.LastLoginAt)
		}
		detail, _ := env.store.Details.FindByUserID(ctx, registered.ID)
		if detail.LastLoginAt == nil || !detail.LastLoginAt.Equal(loginAt) {
			t.Fatalf("expected detail last login %v, got %v", loginAt, detail.LastLoginAt)
		}
	})

	t.Run("deactivated account is reported only after a correct password", func(t *testing.T) {
		env := setupTestEnv(t)
		user := registerTestUser(t, env, "erin")
		if _, err := env.profile.SetActive(ctx, user.ID, false); err != nil {
			t.Fatalf("failed deactivating: %v", err)
		}

		_, err := env.auth.Login(ctx, LoginInput{Email: "erin@example.com", Password: "nope-nope"})
		expectKind(t, err, apperror.KindAuthentication, "Invalid email or password")

		_, err = env.auth.Login(ctx, LoginInput{Email: "erin@example.com", Password: "secret123"})
		expectKind(t, err, apperror.KindAuthentication, "Account is deactivated")
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)
	user := registerTestUser(t, env, "frank")

	t.Run("rejects wrong current password", func(t *testing.T) {
		err := env.auth.ChangePassword(ctx, user.ID, ChangePasswordInput{CurrentPassword: "bad", NewPassword: "newsecret"})
		expectKind(t, err, apperror.KindValidation, "Current password is incorrect")
	})

	t.Run("missing user is not found", func(t *testing.T) {
		err := env.auth.ChangePassword(ctx, 9999, ChangePasswordInput{CurrentPassword: "secret123", NewPassword: "newsecret"})
		expectKind(t, err, apperror.KindNotFound, "User not found")
	})

	t.Run("new password replaces the old one", func(t *testing.T) {
		if err := env.auth.ChangePassword(ctx, user.ID, ChangePasswordInput{CurrentPassword: "secret123", NewPassword: "newsecret"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := env.auth.Login(ctx, LoginInput{Email: "frank@example.com", Password: "secret123"}); err == nil {
			t.Fatal("expected old password to stop working")
		}
		if _, err := env.auth.Login(ctx, LoginInput{Email: "frank@example.com", Password: "newsecret"}); err != nil {
			t.Fatalf("expected new password to work, got %v", err)
		}
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)
	user := registerTestUser(t, env, "grace")

	t.Run("valid token resolves the user", func(t *testing.T) {
		token, _ := env.tokens.Generate(user.ID, user.Username)
		got, err := env.auth.Authenticate(ctx, token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != user.ID {
			t.Fatalf("expected user %d, got %d", user.ID, got.ID)
		}
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		past := env.tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
		token, _ := past.Generate(user.ID, user.Username)
		_, err := env.auth.Authenticate(ctx, token)
		expectKind(t, err, apperror.KindAuthentication, "Token has expired")
	})

	t.Run("token signed with another secret is invalid", func(t *testing.T) {
		token, _ := utils.NewJWTManager("other-secret", time.Hour).Generate(user.ID, user.Username)
		_, err := env.auth.Authenticate(ctx, token)
		expectKind(t, err, apperror.KindAuthentication, "Invalid token")
	})

	t.Run("token for a missing user is rejected", func(t *testing.T) {
		token, _ := env.tokens.Generate(4242, "ghost")
		_, err := env.auth.Authenticate(ctx, token)
		expectKind(t, err, apperror.KindAuthentication, "User not found")
	})

	t.Run("deactivated user is rejected", func(t *testing.T) {
		token, _ := env.tokens.Generate(user.ID, user.Username)
		if _, err := env.profile.SetActive(ctx, user.ID, false); err != nil {
			t.Fatalf("failed deactivating: %v", err)
		}
		_, err := env.auth.Authenticate(ctx, token)
		expectKind(t, err, apperror.KindAuthentication, "")
		if !strings.Contains(err.Error(), "deactivated") {
			t.Fatalf("expected deactivation message, got %v", err)
		}
	})
}
