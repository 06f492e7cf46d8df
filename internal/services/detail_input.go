package services

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/Sosyalles/user-service-api/internal/models"
	"github.com/Sosyalles/user-service-api/pkg/apperror"
	"gorm.io/datatypes"
)

type NotificationPreferencesInput struct {
	EmailNotifications    *bool `json:"emailNotifications"`
	PushNotifications     *bool `json:"pushNotifications"`
	WeeklyRecommendations *bool `json:"weeklyRecommendations"`
}

type SocialLinksInput struct {
	Instagram *string `json:"instagramUrl"`
	Twitter   *string `json:"twitterUrl"`
	LinkedIn  *string `json:"linkedInUrl"`
	Facebook  *string `json:"facebookUrl"`
}

// UpdateDetailInput carries optional detail fields. A nil field is left
// untouched; an empty string clears a nullable text field.
type UpdateDetailInput struct {
	Bio                     *string                       `json:"bio"`
	Location                *string                       `json:"location"`
	ProfilePhoto            *string                       `json:"profilePhoto"`
	ProfilePhotos           *[]string                     `json:"profilePhotos"`
	Interests               *[]string                     `json:"interests"`
	SocialLinks             *SocialLinksInput             `json:"socialLinks"`
	NotificationPreferences *NotificationPreferencesInput `json:"notificationPreferences"`
}

type detailChanges struct {
	updates    map[string]interface{}
	photos     []string
	photosSet  bool
	primary    *string
	primarySet bool
}

func (in UpdateDetailInput) normalize() (*detailChanges, error) {
	c := &detailChanges{updates: map[string]interface{}{}}
	set := false

	if in.Bio != nil {
		set = true
		bio := strings.TrimSpace(*in.Bio)
		if utf8.RuneCountInString(bio) > models.MaxBioLength {
			return nil, apperror.Validation("Bio cannot exceed 500 characters")
		}
		c.updates["bio"] = nullable(bio)
	}

	if in.Location != nil {
		set = true
		location := strings.TrimSpace(*in.Location)
		if utf8.RuneCountInString(location) > models.MaxLocationLength {
			return nil, apperror.Validation("Location cannot exceed 100 characters")
		}
		c.updates["location"] = nullable(location)
	}

	if in.Interests != nil {
		set = true
		interests, err := normalizeInterests(*in.Interests)
		if err != nil {
			return nil, err
		}
		c.updates["interests"] = datatypes.JSONSlice[string](interests)
	}

	if links := in.SocialLinks; links != nil {
		for _, link := range []struct {
			field  string
			column string
			value  *string
		}{
			{"instagramUrl", "instagram_url", links.Instagram},
			{"twitterUrl", "twitter_url", links.Twitter},
			{"linkedInUrl", "linkedin_url", links.LinkedIn},
			{"facebookUrl", "facebook_url", links.Facebook},
		} {
			if link.value == nil {
				continue
			}
			set = true
			value := strings.TrimSpace(*link.value)
			if value != "" && !isHTTPURL(value) {
				return nil, apperror.Validation(fmt.Sprintf("%s must be a valid URL", link.field))
			}
			c.updates[link.column] = nullable(value)
		}
	}

	if prefs := in.NotificationPreferences; prefs != nil {
		set = true
		if prefs.EmailNotifications == nil || prefs.PushNotifications == nil || prefs.WeeklyRecommendations == nil {
			return nil, apperror.Validation("Invalid notification preferences format")
		}
		c.updates["email_notifications"] = *prefs.EmailNotifications
		c.updates["push_notifications"] = *prefs.PushNotifications
		c.updates["weekly_recommendations"] = *prefs.WeeklyRecommendations
	}

	if in.ProfilePhotos != nil {
		set = true
		photos, err := normalizePhotoURLs(*in.ProfilePhotos)
		if err != nil {
			return nil, err
		}
		c.photos = photos
		c.photosSet = true
		c.updates["profile_photos"] = datatypes.JSONSlice[string](photos)
	}

	if in.ProfilePhoto != nil {
		set = true
		primary := strings.TrimSpace(*in.ProfilePhoto)
		if primary != "" && !isHTTPURL(primary) {
			return nil, apperror.Validation("profilePhoto must be a valid URL")
		}
		c.primarySet = true
		if primary != "" {
			c.primary = &primary
		}
	}

	if !set {
		return nil, apperror.Validation(msgNoFields)
	}
	return c, nil
}

func (c *detailChanges) columns() map[string]interface{} {
	out := make(map[string]interface{}, len(c.updates)+1)
	for k, v := range c.updates {
		out[k] = v
	}
	return out
}

// resolvePrimary decides the primary photo after the update. An explicit
// profilePhoto wins. A new photo set keeps the current primary only if it is
// still part of the set, otherwise the first photo (or nothing) takes over.
func (c *detailChanges) resolvePrimary(current *models.UserDetail) (interface{}, bool) {
	if c.primarySet {
		return nullablePtr(c.primary), true
	}
	if !c.photosSet {
		return nil, false
	}
	if current.ProfilePhoto != nil && slices.Contains(c.photos, *current.ProfilePhoto) {
		return nil, false
	}
	next := firstOrNil(c.photos)
	if current.ProfilePhoto == nil && next == nil {
		return nil, false
	}
	return nullablePtr(next), true
}

// normalizeInterests trims entries, drops empty ones and removes duplicates
// while keeping the first occurrence.
func normalizeInterests(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, interest := range raw {
		interest = strings.TrimSpace(interest)
		if interest == "" {
			continue
		}
		if utf8.RuneCountInString(interest) > models.MaxInterestLength {
			return nil, apperror.Validation("Each interest cannot exceed 50 characters")
		}
		if _, dup := seen[interest]; dup {
			continue
		}
		seen[interest] = struct{}{}
		out = append(out, interest)
	}
	if len(out) > models.MaxInterests {
		return nil, apperror.Validation("Interests cannot contain more than 10 items")
	}
	return out, nil
}

func normalizePhotoURLs(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, photo := range raw {
		photo = strings.TrimSpace(photo)
		if !isHTTPURL(photo) {
			return nil, apperror.Validation("profilePhotos must contain valid URLs")
		}
		if _, dup := seen[photo]; dup {
			continue
		}
		seen[photo] = struct{}{}
		out = append(out, photo)
	}
	if len(out) > models.MaxProfilePhotos {
		return nil, apperror.Validation("A maximum of 5 photos is allowed")
	}
	return out, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullablePtr(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func firstOrNil(values []string) *string {
	if len(values) == 0 {
		return nil
	}
	first := values[0]
	return &first
}
