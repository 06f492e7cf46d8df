package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Sosyalles/user-service-api/internal/models"
	"gorm.io/gorm"
)

type UserDetailRepository struct {
	db *gorm.DB
}

func NewUserDetailRepository(db *gorm.DB) *UserDetailRepository {
	return &UserDetailRepository{db: db}
}

func (r *UserDetailRepository) Create(ctx context.Context, detail *models.UserDetail) error {
	return r.db.WithContext(ctx).Create(detail).Error
}

// FindByUserID returns nil, nil when the user has no detail row.
func (r *UserDetailRepository) FindByUserID(ctx context.Context, userID uint) (*models.UserDetail, error) {
	var detail models.UserDetail
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&detail).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &detail, nil
}

// FindOrCreate returns the user's detail row, inserting an empty one first
// when it does not exist yet.
func (r *UserDetailRepository) FindOrCreate(ctx context.Context, userID uint) (*models.UserDetail, error) {
	detail, err := r.FindByUserID(ctx, userID)
	if err != nil || detail != nil {
		return detail, err
	}
	detail = models.NewUserDetail(userID)
	if err := r.Create(ctx, detail); err != nil {
		return nil, err
	}
	return detail, nil
}

func (r *UserDetailRepository) Update(ctx context.Context, userID uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.UserDetail{}).Where("user_id = ?", userID).Updates(updates).Error
}

func (r *UserDetailRepository) UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.UserDetail{}).Where("user_id = ?", userID).Update("last_login_at", at).Error
}

func (r *UserDetailRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.UserDetail{}).Error
}
