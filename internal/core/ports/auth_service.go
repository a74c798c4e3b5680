package ports

import (
	"context"

	"github.com/dweeb/marketplace/internal/core/domain"
)

// Credentials is the credentials-provider login payload.
type Credentials struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// Registration is the sign-up payload. ADMIN cannot be self-assigned.
type Registration struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required,oneof=CLIENT DEVELOPER"`
}

// OAuthProfile is what an identity provider tells us about the user.
type OAuthProfile struct {
	Email   string
	Name    string
	Picture string
	Account domain.ProviderAccount
}

// AuthService authenticates users and provisions accounts.
type AuthService interface {
	// Authorize verifies credentials. It fails with a *validation.Error,
	// domain.ErrInvalidCredentials or domain.ErrWrongProvider.
	Authorize(ctx context.Context, creds Credentials) (*domain.SessionUser, error)
	Register(ctx context.Context, reg Registration) (*domain.SessionUser, error)
	// SignInOAuth finds or provisions the user behind an OAuth identity.
	SignInOAuth(ctx context.Context, profile OAuthProfile) (*domain.SessionUser, error)
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
}
