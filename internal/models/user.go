package models

import "time"

type User struct {
	ID           uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string      `json:"username" gorm:"type:varchar(30);uniqueIndex;not null"`
	Email        string      `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password     string      `json:"-" gorm:"column:password;type:text;not null"`
	FirstName    string      `json:"firstName" gorm:"type:varchar(50);not null"`
	LastName     string      `json:"lastName" gorm:"type:varchar(50);not null"`
	ProfilePhoto *string     `json:"profilePhoto" gorm:"type:text"`
	IsActive     bool        `json:"isActive" gorm:"not null;default:true"`
	LastLoginAt  *time.Time  `json:"lastLoginAt"`
	CreatedAt    time.Time   `json:"createdAt" gorm:"index"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	Detail       *UserDetail `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// UserResponse is the public shape of a user. It has no password field.
type UserResponse struct {
	ID           uint       `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	ProfilePhoto *string    `json:"profilePhoto"`
	IsActive     bool       `json:"isActive"`
	LastLoginAt  *time.Time `json:"lastLoginAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		ProfilePhoto: u.ProfilePhoto,
		IsActive:     u.IsActive,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func ToUserResponses(users []User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToResponse())
	}
	return out
}
