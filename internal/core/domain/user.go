package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the marketplace-wide permission level of a user.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleDeveloper Role = "DEVELOPER"
	RoleClient    Role = "CLIENT"
)

// ParseRole accepts the upper-case role names only.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.TrimSpace(s)); r {
	case RoleAdmin, RoleDeveloper, RoleClient:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string { return string(r) }

// ClientProfile is created for users registering as clients.
type ClientProfile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// DeveloperProfile is created for users registering as developers.
type DeveloperProfile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is the identity record. How the user proves who they are lives in
// Account.
type User struct {
	ID            string            `json:"id"`
	Email         string            `json:"email"`
	Name          string            `json:"name"`
	Image         *string           `json:"image,omitempty"`
	Role          Role              `json:"role"`
	EmailVerified *time.Time        `json:"emailVerified,omitempty"`
	Client        *ClientProfile    `json:"client,omitempty"`
	Developer     *DeveloperProfile `json:"developer,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// SessionUser returns the sanitized projection embedded in sessions.
func (u *User) SessionUser() *SessionUser {
	su := &SessionUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
	if u.Image != nil {
		su.Image = *u.Image
	}
	return su
}
