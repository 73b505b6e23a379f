package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleLearner = "user"
	RoleAdmin   = "admin"
)

type User struct {
	gorm.Model
	Email            string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string    `gorm:"not null" json:"-"`
	Role             string    `gorm:"default:user;index" json:"role"` // user, admin
	Name             string    `json:"name"`
	ProfilePicture   string    `json:"profile_picture"`
	Age              string    `json:"age"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	Education        string    `json:"education"`
	RegistrationDate time.Time `json:"registration_date"`
}

// DisplayName falls back to the e-mail local part when no name was set.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	for i, r := range u.Email {
		if r == '@' {
			return u.Email[:i]
		}
	}
	if u.Email != "" {
		return u.Email
	}
	return "User"
}

type LoginHistory struct {
	gorm.Model
	UserID    uint `gorm:"index"`
	LoginTime time.Time
}
