package domain

import "time"

// MaxUsernameLength bounds User.Username.
const MaxUsernameLength = 150

// User is an account that can log in.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	IsSuperuser  bool      `json:"is_superuser"`
	IsActive     bool      `json:"is_active"`
	DateJoined   time.Time `json:"date_joined"`
	LastLogin    time.Time `json:"last_login,omitzero"`
}

// IsAdmin reports whether the user may delete images and edit tags.
// Inactive accounts never hold the capability.
func (u *User) IsAdmin() bool {
	return u != nil && u.IsActive && u.IsSuperuser
}
