package domain

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password
	// so callers cannot tell them apart.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrWrongProvider means the email exists but has no credentials account.
	ErrWrongProvider = errors.New("please sign in with your OAuth provider")

	ErrUserNotFound          = errors.New("user not found")
	ErrUserExists            = errors.New("user already exists")
	ErrAccountNotFound       = errors.New("account not found")
	ErrAccountExists         = errors.New("account already linked")
	ErrOAuthAccountNotLinked = errors.New("email already registered with another sign-in method")
	ErrForbidden             = errors.New("access forbidden")
	ErrStateNotFound         = errors.New("oauth state not found or expired")
)
