package ports

import (
	"context"

	"github.com/dweeb/marketplace/internal/core/domain"
)

// CredentialStore is the persistence boundary for users and their linked
// accounts. Lookups that find nothing return domain.ErrUserNotFound or
// domain.ErrAccountNotFound; any other error is a storage failure.
type CredentialStore interface {
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	// FindAccount returns the user's account for the given provider.
	FindAccount(ctx context.Context, userID, provider string) (*domain.Account, error)
	// FindAccountByProvider resolves an OAuth identity to its account.
	FindAccountByProvider(ctx context.Context, provider, providerAccountID string) (*domain.Account, error)

	// CreateUser inserts the user together with the profile matching its role
	// and, when account is non-nil, links it in the same transaction.
	CreateUser(ctx context.Context, user *domain.User, account *domain.Account) (*domain.User, error)
	LinkAccount(ctx context.Context, account *domain.Account) error
	UpdateAccountTokens(ctx context.Context, account *domain.Account) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
