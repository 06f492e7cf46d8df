package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sosyalles/user-service-api/internal/metrics"
	"github.com/Sosyalles/user-service-api/internal/models"
	"github.com/Sosyalles/user-service-api/internal/repository"
	"github.com/Sosyalles/user-service-api/pkg/apperror"
	"github.com/Sosyalles/user-service-api/pkg/logger"
	"github.com/Sosyalles/user-service-api/pkg/utils"
)

const (
	msgEmailTaken         = "Email already exists"
	msgUsernameTaken      = "Username already exists"
	msgInvalidCredentials = "Invalid email or password"
	msgAccountDeactivated = "Account is deactivated"
	msgWrongPassword      = "Current password is incorrect"
	msgUserNotFound       = "User not found"
)

type RegisterInput struct {
	Username  string `json:"username" validate:"required,min=3,max=30"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=6,max=100"`
	FirstName string `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string `json:"lastName" validate:"required,min=2,max=50"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=100,nefield=CurrentPassword"`
}

type LoginResult struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

type AuthService struct {
	store         *repository.Store
	tokens        *utils.JWTManager
	metrics       *metrics.Metrics
	now           func() time.Time
	checkPassword func(password, hash string) bool
}

func NewAuthService(store *repository.Store, tokens *utils.JWTManager, m *metrics.Metrics) *AuthService {
	return &AuthService{
		store:         store,
		tokens:        tokens,
		metrics:       m,
		now:           time.Now,
		checkPassword: utils.CheckPassword,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the user and an empty detail row in one transaction.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.UserResponse, error) {
	user := &models.User{
		Username:  strings.TrimSpace(in.Username),
		Email:     normalizeEmail(in.Email),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		IsActive:  true,
	}

	if err := ensureAvailable(ctx, s.store, user.Email, user.Username, 0); err != nil {
		s.metrics.AuthEvent("register", "conflict")
		return models.UserResponse{}, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return models.UserResponse{}, apperror.Internal("hash password", err)
	}
	user.Password = hash

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users.Create(ctx, user); err != nil {
			return err
		}
		return tx.Details.Create(ctx, models.NewUserDetail(user.ID))
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			s.metrics.AuthEvent("register", "conflict")
			return models.UserResponse{}, conflictFromUniqueViolation(err)
		}
		return models.UserResponse{}, fmt.Errorf("create user: %w", err)
	}

	s.metrics.AuthEvent("register", "success")
	logger.InfoWithUser(fmt.Sprint(user.ID), "user_registered", map[string]interface{}{
		"username": user.Username,
	})
	return user.ToResponse(), nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	user, err := s.store.Users.FindByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		return LoginResult{}, fmt.Errorf("find user by email: %w", err)
	}
	hash := utils.DummyPasswordHash()
	if user != nil {
		hash = user.Password
	}
	if !s.checkPassword(in.Password, hash) || user == nil {
		s.metrics.AuthEvent("login", "failure")
		return LoginResult{}, apperror.Authentication(msgInvalidCredentials)
	}
	if !user.IsActive {
		s.metrics.AuthEvent("login", "inactive")
		return LoginResult{}, apperror.Authentication(msgAccountDeactivated)
	}

	loginAt := s.now().UTC()
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users.UpdateLastLogin(ctx, user.ID, loginAt); err != nil {
			return err
		}
		return tx.Details.UpdateLastLogin(ctx, user.ID, loginAt)
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("record last login: %w", err)
	}
	user.LastLoginAt = &loginAt

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return LoginResult{}, apperror.Internal("issue token", err)
	}

	s.metrics.AuthEvent("login", "success")
	return LoginResult{Token: token, User: user.ToResponse()}, nil
}

// ChangePassword replaces the stored hash. Previously issued tokens stay
// valid until they expire.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return apperror.NotFound(msgUserNotFound)
	}
	if !utils.CheckPassword(in.CurrentPassword, user.Password) {
		s.metrics.AuthEvent("change_password", "failure")
		return apperror.Validation(msgWrongPassword)
	}

	hash, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return apperror.Internal("hash password", err)
	}
	if _, err := s.store.Users.Update(ctx, userID, map[string]interface{}{"password": hash}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.metrics.AuthEvent("change_password", "success")
	return nil
}

// Authenticate resolves a bearer token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, utils.ErrExpiredToken) {
			return nil, apperror.Authentication("Token has expired")
		}
		return nil, apperror.Authentication("Invalid token")
	}

	user, err := s.store.Users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("find token user: %w", err)
	}
	if user == nil {
		return nil, apperror.Authentication(msgUserNotFound)
	}
	if !user.IsActive {
		return nil, apperror.Authentication("User account is deactivated")
	}
	return user, nil
}

// ensureAvailable checks both unique keys, ignoring the row excludeID.
// Empty values are skipped.
func ensureAvailable(ctx context.Context, store *repository.Store, email, username string, excludeID uint) error {
	if email != "" {
		taken, err := store.Users.ExistsByEmail(ctx, email, excludeID)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken {
			return apperror.Conflict(msgEmailTaken)
		}
	}
	if username != "" {
		taken, err := store.Users.ExistsByUsername(ctx, username, excludeID)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if taken {
			return apperror.Conflict(msgUsernameTaken)
		}
	}
	return nil
}

func conflictFromUniqueViolation(err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "email") {
		return apperror.New(apperror.KindConflict, msgEmailTaken, err)
	}
	return apperror.New(apperror.KindConflict, msgUsernameTaken, err)
}
