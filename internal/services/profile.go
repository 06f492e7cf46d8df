package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Sosyalles/user-service-api/internal/metrics"
	"github.com/Sosyalles/user-service-api/internal/models"
	"github.com/Sosyalles/user-service-api/internal/repository"
	"github.com/Sosyalles/user-service-api/internal/storage"
	"github.com/Sosyalles/user-service-api/pkg/apperror"
	"github.com/Sosyalles/user-service-api/pkg/utils"
)

const msgNoFields = "No fields provided for update"

type UpdateProfileInput struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=30"`
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	FirstName *string `json:"firstName" validate:"omitempty,min=2,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,min=2,max=50"`
}

type UserPage struct {
	Users      []models.UserResponse `json:"users"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	Total      int64                 `json:"total"`
	TotalPages int                   `json:"totalPages"`
}

type ProfileOptions struct {
	// PublicURL is the base that photo URLs are built on, without a trailing slash.
	PublicURL    string
	MaxPhotoSize int64
}

type ProfileService struct {
	store   *repository.Store
	photos  storage.PhotoStore
	opts    ProfileOptions
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewProfileService(store *repository.Store, photos storage.PhotoStore, opts ProfileOptions, m *metrics.Metrics) *ProfileService {
	if opts.MaxPhotoSize <= 0 {
		opts.MaxPhotoSize = DefaultMaxPhotoSize
	}
	opts.PublicURL = strings.TrimRight(opts.PublicURL, "/")
	return &ProfileService{store: store, photos: photos, opts: opts, metrics: m, now: time.Now}
}

func (s *ProfileService) requireUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound(msgUserNotFound)
	}
	return user, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uint) (models.UserResponse, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return models.UserResponse{}, err
	}
	return user.ToResponse(), nil
}

// GetDetail returns the user's detail, or a placeholder when no row exists.
func (s *ProfileService) GetDetail(ctx context.Context, userID uint) (models.UserDetailResponse, error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return models.UserDetailResponse{}, err
	}
	detail, err := s.store.Details.FindByUserID(ctx, userID)
	if err != nil {
		return models.UserDetailResponse{}, fmt.Errorf("find detail: %w", err)
	}
	if detail == nil {
		return models.PlaceholderDetail(userID), nil
	}
	return detail.ToResponse(), nil
}

// GetProfileWithDetails looks the user up by numeric id first and then by
// username.
func (s *ProfileService) GetProfileWithDetails(ctx context.Context, usernameOrID string) (models.ProfileWithDetails, error) {
	key := strings.TrimSpace(usernameOrID)
	if key == "" {
		return models.ProfileWithDetails{}, apperror.Validation("Username is required")
	}

	var user *models.User
	if id, err := strconv.ParseUint(key, 10, 0); err == nil && id > 0 {
		found, err := s.store.Users.FindByID(ctx, uint(id))
		if err != nil {
			return models.ProfileWithDetails{}, fmt.Errorf("find user: %w", err)
		}
		user = found
	}
	if user == nil {
		found, err := s.store.Users.FindByUsername(ctx, key)
		if err != nil {
			return models.ProfileWithDetails{}, fmt.Errorf("find user: %w", err)
		}
		user = found
	}
	if user == nil {
		return models.ProfileWithDetails{}, apperror.NotFound(msgUserNotFound)
	}

	detail, err := s.store.Details.FindByUserID(ctx, user.ID)
	if err != nil {
		return models.ProfileWithDetails{}, fmt.Errorf("find detail: %w", err)
	}
	out := models.ProfileWithDetails{User: user.ToResponse(), Detail: models.PlaceholderDetail(user.ID)}
	if detail != nil {
		out.Detail = detail.ToResponse()
	}
	return out, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (models.UserResponse, error) {
	updates := map[string]interface{}{}
	var email, username string

	if in.Username != nil {
		username = strings.TrimSpace(*in.Username)
		updates["username"] = username
	}
	if in.Email != nil {
		email = normalizeEmail(*in.Email)
		updates["email"] = email
	}
	if in.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if len(updates) == 0 {
		return models.UserResponse{}, apperror.Validation(msgNoFields)
	}

	if _, err := s.requireUser(ctx, userID); err != nil {
		return models.UserResponse{}, err
	}
	if err := ensureAvailable(ctx, s.store, email, username, userID); err != nil {
		return models.UserResponse{}, err
	}

	if _, err := s.store.Users.Update(ctx, userID, updates); err != nil {
		if repository.IsUniqueViolation(err) {
			return models.UserResponse{}, conflictFromUniqueViolation(err)
		}
		return models.UserResponse{}, fmt.Errorf("update user: %w", err)
	}

	return s.GetProfile(ctx, userID)
}

// UpdateDetail validates every supplied field, then writes them together with
// any primary photo change mirrored onto the user.
func (s *ProfileService) UpdateDetail(ctx context.Context, userID uint, in UpdateDetailInput) (models.UserDetailResponse, error) {
	changes, err := in.normalize()
	if err != nil {
		return models.UserDetailResponse{}, err
	}
	if _, err := s.requireUser(ctx, userID); err != nil {
		return models.UserDetailResponse{}, err
	}

	var (
		updated  *models.UserDetail
		previous []string
	)
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		detail, err := tx.Details.FindOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		previous = append(previous, detail.ProfilePhotos...)

		updates := changes.columns()
		primary, primaryChanged := changes.resolvePrimary(detail)
		if primaryChanged {
			updates["profile_photo"] = primary
			if _, err := tx.Users.Update(ctx, userID, map[string]interface{}{"profile_photo": primary}); err != nil {
				return err
			}
		}

		if err := tx.Details.Update(ctx, userID, updates); err != nil {
			return err
		}
		updated, err = tx.Details.FindByUserID(ctx, userID)
		return err
	})
	if err != nil {
		return models.UserDetailResponse{}, fmt.Errorf("update detail: %w", err)
	}
	if changes.photosSet {
		s.removeFiles(ctx, userID, s.ownedNames(staleURLs(previous, updated.ProfilePhotos, updated.ProfilePhoto)))
	}
	return updated.ToResponse(), nil
}

// DeleteUser removes the user and detail rows, then the stored photo files.
func (s *ProfileService) DeleteUser(ctx context.Context, userID uint) error {
	var photoURLs []string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		user, err := tx.Users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperror.NotFound(msgUserNotFound)
		}

		detail, err := tx.Details.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if detail != nil {
			photoURLs = append(photoURLs, detail.ProfilePhotos...)
		}

		if err := tx.Details.DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		_, err = tx.Users.Delete(ctx, userID)
		return err
	})
	if err != nil {
		if _, ok := apperror.As(err); ok {
			return err
		}
		return fmt.Errorf("delete user: %w", err)
	}

	s.removeFiles(ctx, userID, s.ownedNames(photoURLs))
	return nil
}

func (s *ProfileService) ListUsers(ctx context.Context, page, limit int, search string) (UserPage, error) {
	params, err := utils.NewPaginationParams(page, limit)
	if err != nil {
		return UserPage{}, err
	}

	users, total, err := s.store.Users.List(ctx, repository.UserFilter{Search: search, Pagination: params})
	if err != nil {
		return UserPage{}, fmt.Errorf("list users: %w", err)
	}

	return UserPage{
		Users:      models.ToUserResponses(users),
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: utils.TotalPages(total, params.Limit),
	}, nil
}

func (s *ProfileService) GetUserByID(ctx context.Context, userID uint) (models.UserResponse, error) {
	return s.GetProfile(ctx, userID)
}

func (s *ProfileService) GetUserByUsername(ctx context.Context, username string) (models.UserResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.UserResponse{}, apperror.Validation("Username is required")
	}
	user, err := s.store.Users.FindByUsername(ctx, username)
	if err != nil {
		return models.UserResponse{}, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return models.UserResponse{}, apperror.NotFound(msgUserNotFound)
	}
	return user.ToResponse(), nil
}

func (s *ProfileService) GetUserByEmail(ctx context.Context, email string) (models.UserResponse, error) {
	email = normalizeEmail(email)
	if email == "" {
		return models.UserResponse{}, apperror.Validation("Email is required")
	}
	user, err := s.store.Users.FindByEmail(ctx, email)
	if err != nil {
		return models.UserResponse{}, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return models.UserResponse{}, apperror.NotFound(msgUserNotFound)
	}
	return user.ToResponse(), nil
}

// SetActive activates or deactivates an account. Deactivated users cannot log
// in and their tokens stop authenticating.
func (s *ProfileService) SetActive(ctx context.Context, userID uint, active bool) (models.UserResponse, error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return models.UserResponse{}, err
	}
	if _, err := s.store.Users.Update(ctx, userID, map[string]interface{}{"is_active": active}); err != nil {
		return models.UserResponse{}, fmt.Errorf("update status: %w", err)
	}
	return s.GetProfile(ctx, userID)
}
