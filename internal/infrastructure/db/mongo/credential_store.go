package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dweeb/marketplace/internal/core/domain"
	"github.com/dweeb/marketplace/internal/core/ports"
)

const (
	usersCollection    = "users"
	accountsCollection = "accounts"
)

// CredentialStore keeps users (with embedded profiles) and accounts in two
// collections.
type CredentialStore struct {
	client   *mongo.Client
	users    *mongo.Collection
	accounts *mongo.Collection
}

var _ ports.CredentialStore = (*CredentialStore)(nil)

// NewCredentialStore wraps db. client may be nil when the caller owns the
// connection.
func NewCredentialStore(client *mongo.Client, db *mongo.Database) *CredentialStore {
	return &CredentialStore{
		client:   client,
		users:    db.Collection(usersCollection),
		accounts: db.Collection(accountsCollection),
	}
}

type profileDoc struct {
	ID        string    `bson:"id"`
	CreatedAt time.Time `bson:"created_at"`
}

type userDoc struct {
	ID            string      `bson:"_id"`
	Email         string      `bson:"email"`
	Name          string      `bson:"name"`
	Image         *string     `bson:"image,omitempty"`
	Role          string      `bson:"role"`
	EmailVerified *time.Time  `bson:"email_verified,omitempty"`
	Client        *profileDoc `bson:"client,omitempty"`
	Developer     *profileDoc `bson:"developer,omitempty"`
	CreatedAt     time.Time   `bson:"created_at"`
	UpdatedAt     time.Time   `bson:"updated_at"`
}

type accountDoc struct {
	ID                string     `bson:"_id"`
	UserID            string     `bson:"user_id"`
	Type              string     `bson:"type"`
	Provider          string     `bson:"provider"`
	ProviderAccountID string     `bson:"provider_account_id"`
	PasswordHash      string     `bson:"password_hash,omitempty"`
	AccessToken       string     `bson:"access_token,omitempty"`
	RefreshToken      string     `bson:"refresh_token,omitempty"`
	IDToken           string     `bson:"id_token,omitempty"`
	TokenType         string     `bson:"token_type,omitempty"`
	Scope             string     `bson:"scope,omitempty"`
	ExpiresAt         *time.Time `bson:"expires_at,omitempty"`
	CreatedAt         time.Time  `bson:"created_at"`
	UpdatedAt         time.Time  `bson:"updated_at"`
}

func (d *userDoc) toDomain() *domain.User {
	u := &domain.User{
		ID:            d.ID,
		Email:         d.Email,
		Name:          d.Name,
		Image:         d.Image,
		Role:          domain.Role(d.Role),
		EmailVerified: d.EmailVerified,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
	if d.Client != nil {
		u.Client = &domain.ClientProfile{ID: d.Client.ID, UserID: d.ID, CreatedAt: d.Client.CreatedAt.UTC()}
	}
	if d.Developer != nil {
		u.Developer = &domain.DeveloperProfile{ID: d.Developer.ID, UserID: d.ID, CreatedAt: d.Developer.CreatedAt.UTC()}
	}
	return u
}

func (d *accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:                d.ID,
		UserID:            d.UserID,
		Type:              domain.AccountType(d.Type),
		Provider:          d.Provider,
		ProviderAccountID: d.ProviderAccountID,
		PasswordHash:      d.PasswordHash,
		AccessToken:       d.AccessToken,
		RefreshToken:      d.RefreshToken,
		IDToken:           d.IDToken,
		TokenType:         d.TokenType,
		Scope:             d.Scope,
		ExpiresAt:         d.ExpiresAt,
		CreatedAt:         d.CreatedAt.UTC(),
		UpdatedAt:         d.UpdatedAt.UTC(),
	}
}

func accountToDoc(a *domain.Account) accountDoc {
	return accountDoc{
		ID:                a.ID,
		UserID:            a.UserID,
		Type:              string(a.Type),
		Provider:          a.Provider,
		ProviderAccountID: a.ProviderAccountID,
		PasswordHash:      a.PasswordHash,
		AccessToken:       a.AccessToken,
		RefreshToken:      a.RefreshToken,
		IDToken:           a.IDToken,
		TokenType:         a.TokenType,
		Scope:             a.Scope,
		ExpiresAt:         a.ExpiresAt,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func (s *CredentialStore) findUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *CredentialStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *CredentialStore) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *CredentialStore) findAccount(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var doc accountDoc
	if err := s.accounts.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *CredentialStore) FindAccount(ctx context.Context, userID, provider string) (*domain.Account, error) {
	return s.findAccount(ctx, bson.M{"user_id": userID, "provider": provider})
}

func (s *CredentialStore) FindAccountByProvider(ctx context.Context, provider, providerAccountID string) (*domain.Account, error) {
	return s.findAccount(ctx, bson.M{"provider": provider, "provider_account_id": providerAccountID})
}

// CreateUser inserts the user and then the account. Standalone servers have
// no transactions, so a failed account insert removes the user again.
func (s *CredentialStore) CreateUser(ctx context.Context, user *domain.User, account *domain.Account) (*domain.User, error) {
	if account != nil {
		if err := account.Validate(); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
	}

	doc := userDoc{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Image:         user.Image,
		Role:          string(user.Role),
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
	switch user.Role {
	case domain.RoleClient:
		doc.Client = &profileDoc{ID: uuid.NewString(), CreatedAt: user.CreatedAt}
	case domain.RoleDeveloper:
		doc.Developer = &profileDoc{ID: uuid.NewString(), CreatedAt: user.CreatedAt}
	}

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if account != nil {
		if err := s.LinkAccount(ctx, account); err != nil {
			_, _ = s.users.DeleteOne(ctx, bson.M{"_id": user.ID})
			return nil, err
		}
	}
	return doc.toDomain(), nil
}

func (s *CredentialStore) LinkAccount(ctx context.Context, account *domain.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("link account: %w", err)
	}
	if _, err := s.accounts.InsertOne(ctx, accountToDoc(account)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAccountExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *CredentialStore) UpdateAccountTokens(ctx context.Context, account *domain.Account) error {
	res, err := s.accounts.UpdateOne(ctx, bson.M{"_id": account.ID}, bson.M{"$set": bson.M{
		"access_token":  account.AccessToken,
		"refresh_token": account.RefreshToken,
		"id_token":      account.IDToken,
		"token_type":    account.TokenType,
		"scope":         account.Scope,
		"expires_at":    account.ExpiresAt,
		"updated_at":    account.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update account tokens: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (s *CredentialStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx, nil)
}

func (s *CredentialStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
