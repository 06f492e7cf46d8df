package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	MaxBioLength      = 500
	MaxLocationLength = 100
	MaxInterests      = 10
	MaxInterestLength = 50
	MaxProfilePhotos  = 5
)

type UserDetail struct {
	ID                    uint                        `gorm:"primaryKey;autoIncrement"`
	UserID                uint                        `gorm:"uniqueIndex;not null"`
	Bio                   *string                     `gorm:"type:varchar(500)"`
	Location              *string                     `gorm:"type:varchar(100)"`
	ProfilePhoto          *string                     `gorm:"type:text"`
	ProfilePhotos         datatypes.JSONSlice[string] `gorm:"not null"`
	Interests             datatypes.JSONSlice[string] `gorm:"not null"`
	InstagramURL          *string                     `gorm:"column:instagram_url;type:text"`
	TwitterURL            *string                     `gorm:"column:twitter_url;type:text"`
	LinkedInURL           *string                     `gorm:"column:linkedin_url;type:text"`
	FacebookURL           *string                     `gorm:"column:facebook_url;type:text"`
	EmailNotifications    bool                        `gorm:"not null;default:true"`
	PushNotifications     bool                        `gorm:"not null;default:true"`
	WeeklyRecommendations bool                        `gorm:"not null;default:false"`
	LastLoginAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewUserDetail returns an empty detail row with the default preferences.
func NewUserDetail(userID uint) *UserDetail {
	return &UserDetail{
		UserID:             userID,
		ProfilePhotos:      datatypes.JSONSlice[string]{},
		Interests:          datatypes.JSONSlice[string]{},
		EmailNotifications: true,
		PushNotifications:  true,
	}
}

type NotificationPreferences struct {
	EmailNotifications    bool `json:"emailNotifications"`
	PushNotifications     bool `json:"pushNotifications"`
	WeeklyRecommendations bool `json:"weeklyRecommendations"`
}

type SocialLinks struct {
	Instagram *string `json:"instagramUrl"`
	Twitter   *string `json:"twitterUrl"`
	LinkedIn  *string `json:"linkedInUrl"`
	Facebook  *string `json:"facebookUrl"`
}

type UserDetailResponse struct {
	ID                      uint                    `json:"id"`
	UserID                  uint                    `json:"userId"`
	Bio                     *string                 `json:"bio"`
	Location                *string                 `json:"location"`
	ProfilePhoto            *string                 `json:"profilePhoto"`
	ProfilePhotos           []string                `json:"profilePhotos"`
	Interests               []string                `json:"interests"`
	SocialLinks             SocialLinks             `json:"socialLinks"`
	NotificationPreferences NotificationPreferences `json:"notificationPreferences"`
	LastLoginAt             *time.Time              `json:"lastLoginAt"`
	CreatedAt               *time.Time              `json:"createdAt"`
	UpdatedAt               *time.Time              `json:"updatedAt"`
}

func (d *UserDetail) ToResponse() UserDetailResponse {
	resp := UserDetailResponse{
		ID:            d.ID,
		UserID:        d.UserID,
		Bio:           d.Bio,
		Location:      d.Location,
		ProfilePhoto:  d.ProfilePhoto,
		ProfilePhotos: nonNil(d.ProfilePhotos),
		Interests:     nonNil(d.Interests),
		SocialLinks: SocialLinks{
			Instagram: d.InstagramURL,
			Twitter:   d.TwitterURL,
			LinkedIn:  d.LinkedInURL,
			Facebook:  d.FacebookURL,
		},
		NotificationPreferences: NotificationPreferences{
			EmailNotifications:    d.EmailNotifications,
			PushNotifications:     d.PushNotifications,
			WeeklyRecommendations: d.WeeklyRecommendations,
		},
		LastLoginAt: d.LastLoginAt,
	}
	if !d.CreatedAt.IsZero() {
		createdAt := d.CreatedAt
		resp.CreatedAt = &createdAt
	}
	if !d.UpdatedAt.IsZero() {
		updatedAt := d.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}

// PlaceholderDetail stands in for a user that has no detail row yet.
func PlaceholderDetail(userID uint) UserDetailResponse {
	return NewUserDetail(userID).ToResponse()
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return append([]string(nil), values...)
}

// ProfileWithDetails is the public composite profile.
type ProfileWithDetails struct {
	User   UserResponse       `json:"user"`
	Detail UserDetailResponse `json:"detail"`
}
