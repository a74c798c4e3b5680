package domain

import "time"

// SessionUser is the sanitized user projection handed to clients. It has no
// field for secrets.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	Role  Role   `json:"role"`
}

// Session is the client-visible form of a session token.
type Session struct {
	User    SessionUser `json:"user"`
	Expires time.Time   `json:"expires"`
}
