package domain

import "time"

// AuthEventType names a lifecycle event of the identity flow.
type AuthEventType string

const (
	EventSignIn      AuthEventType = "signIn"
	EventSignOut     AuthEventType = "signOut"
	EventCreateUser  AuthEventType = "createUser"
	EventLinkAccount AuthEventType = "linkAccount"
)

// AuthEvent is published after the fact; nothing in the request path waits
// for it to be handled.
type AuthEvent struct {
	Type      AuthEventType
	UserID    string
	Provider  string
	IsNewUser bool
	Timestamp time.Time
}
