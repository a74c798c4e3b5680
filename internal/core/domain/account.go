package domain

import (
	"errors"
	"time"
)

// ProviderCredentials is the provider name of password-backed accounts.
const ProviderCredentials = "credentials"

// AccountType distinguishes password accounts from OAuth links.
type AccountType string

const (
	AccountTypeCredentials AccountType = "credentials"
	AccountTypeOAuth       AccountType = "oauth"
)

// Account is one way a user can sign in. A user may have several (for
// example Google and credentials).
type Account struct {
	ID                string      `json:"id"`
	UserID            string      `json:"userId"`
	Type              AccountType `json:"type"`
	Provider          string      `json:"provider"`
	ProviderAccountID string      `json:"providerAccountId"`
	PasswordHash      string      `json:"-"`
	AccessToken       string      `json:"-"`
	RefreshToken      string      `json:"-"`
	IDToken           string      `json:"-"`
	TokenType         string      `json:"tokenType,omitempty"`
	Scope             string      `json:"scope,omitempty"`
	ExpiresAt         *time.Time  `json:"expiresAt,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

var (
	errMissingPasswordHash = errors.New("credentials account requires a password hash")
	errUnexpectedHash      = errors.New("oauth account must not carry a password hash")
	errMissingProvider     = errors.New("account provider is required")
)

// Validate enforces the provider/secret pairing: credentials accounts carry a
// password hash, OAuth accounts carry provider tokens instead.
func (a *Account) Validate() error {
	if a.Provider == "" {
		return errMissingProvider
	}
	if a.Provider == ProviderCredentials {
		if a.PasswordHash == "" {
			return errMissingPasswordHash
		}
		return nil
	}
	if a.PasswordHash != "" {
		return errUnexpectedHash
	}
	return nil
}

// ProviderAccount is the provider data available on an OAuth sign-in event.
type ProviderAccount struct {
	Provider          string
	ProviderAccountID string
	AccessToken       string
	RefreshToken      string
	IDToken           string
	TokenType         string
	Scope             string
	ExpiresAt         *time.Time
}
