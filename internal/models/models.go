package models

import "time"

// Role is the capability set attached to an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered account owning documents and leads
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user may run administrative lead operations.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Owner is the minimal identity joined onto leads in the admin view
type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
