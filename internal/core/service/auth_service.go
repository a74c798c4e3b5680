package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dweeb/marketplace/internal/core/domain"
	"github.com/dweeb/marketplace/internal/core/ports"
	"github.com/dweeb/marketplace/internal/pkg/validation"
)

type authService struct {
	store  ports.CredentialStore
	hasher ports.PasswordHasher
	events ports.EventPublisher
	log    zerolog.Logger
	now    func() time.Time
}

// NewAuthService returns the credentials and OAuth authenticator. events may
// be nil.
func NewAuthService(store ports.CredentialStore, hasher ports.PasswordHasher, events ports.EventPublisher, log zerolog.Logger) ports.AuthService {
	return &authService{
		store:  store,
		hasher: hasher,
		events: events,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Authorize(ctx context.Context, creds ports.Credentials) (*domain.SessionUser, error) {
	creds.Email = normalizeEmail(creds.Email)
	if err := validation.Struct(creds); err != nil {
		return nil, err
	}

	user, err := s.store.FindUserByEmail(ctx, creds.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authorize: find user: %w", err)
	}

	account, err := s.store.FindAccount(ctx, user.ID, domain.ProviderCredentials)
	if errors.Is(err, domain.ErrAccountNotFound) || (err == nil && account.PasswordHash == "") {
		return nil, domain.ErrWrongProvider
	}
	if err != nil {
		return nil, fmt.Errorf("authorize: find account: %w", err)
	}

	if !s.hasher.Verify(creds.Password, account.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	s.publish(domain.EventSignIn, user.ID, domain.ProviderCredentials, false)
	return user.SessionUser(), nil
}

func (s *authService) Register(ctx context.Context, reg ports.Registration) (*domain.SessionUser, error) {
	reg.Email = normalizeEmail(reg.Email)
	reg.Name = strings.TrimSpace(reg.Name)
	if err := validation.Struct(reg); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(reg.Role)
	if err != nil || role == domain.RoleAdmin {
		return nil, validation.NewError("role", "role must be one of: CLIENT DEVELOPER")
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:        uuid.NewString(),
		Email:     reg.Email,
		Name:      reg.Name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	account := &domain.Account{
		ID:                uuid.NewString(),
		UserID:            user.ID,
		Type:              domain.AccountTypeCredentials,
		Provider:          domain.ProviderCredentials,
		ProviderAccountID: user.ID,
		PasswordHash:      hash,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := s.store.CreateUser(ctx, user, account)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	s.publish(domain.EventCreateUser, created.ID, domain.ProviderCredentials, true)
	s.publish(domain.EventSignIn, created.ID, domain.ProviderCredentials, true)
	return created.SessionUser(), nil
}

func (s *authService) SignInOAuth(ctx context.Context, profile ports.OAuthProfile) (*domain.SessionUser, error) {
	pa := profile.Account
	if pa.Provider == "" || pa.ProviderAccountID == "" {
		return nil, errors.New("oauth sign-in: provider identity is required")
	}
	if pa.Provider == domain.ProviderCredentials {
		return nil, fmt.Errorf("oauth sign-in: %q is not an oauth provider", pa.Provider)
	}
	email := normalizeEmail(profile.Email)
	if email == "" {
		return nil, validation.NewError("email", "email is required")
	}

	account, err := s.store.FindAccountByProvider(ctx, pa.Provider, pa.ProviderAccountID)
	switch {
	case err == nil:
		return s.refreshOAuthAccount(ctx, account, pa)
	case !errors.Is(err, domain.ErrAccountNotFound):
		return nil, fmt.Errorf("oauth sign-in: find account: %w", err)
	}

	// Linking by matching email would let a provider account take over an
	// existing user.
	_, err = s.store.FindUserByEmail(ctx, email)
	if err == nil {
		return nil, domain.ErrOAuthAccountNotLinked
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("oauth sign-in: find user: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:            uuid.NewString(),
		Email:         email,
		Name:          strings.TrimSpace(profile.Name),
		Role:          domain.RoleClient,
		EmailVerified: &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if profile.Picture != "" {
		pic := profile.Picture
		user.Image = &pic
	}
	created, err := s.store.CreateUser(ctx, user, oauthAccount(user.ID, pa, now))
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) || errors.Is(err, domain.ErrAccountExists) {
			return nil, domain.ErrOAuthAccountNotLinked
		}
		return nil, fmt.Errorf("oauth sign-in: create user: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Str("provider", pa.Provider).Msg("user provisioned from oauth")
	s.publish(domain.EventCreateUser, created.ID, pa.Provider, true)
	s.publish(domain.EventLinkAccount, created.ID, pa.Provider, true)
	s.publish(domain.EventSignIn, created.ID, pa.Provider, true)
	return created.SessionUser(), nil
}

func (s *authService) refreshOAuthAccount(ctx context.Context, account *domain.Account, pa domain.ProviderAccount) (*domain.SessionUser, error) {
	user, err := s.store.FindUserByID(ctx, account.UserID)
	if err != nil {
		return nil, fmt.Errorf("oauth sign-in: find user: %w", err)
	}

	account.AccessToken = pa.AccessToken
	if pa.RefreshToken != "" {
		account.RefreshToken = pa.RefreshToken
	}
	if pa.IDToken != "" {
		account.IDToken = pa.IDToken
	}
	account.TokenType = pa.TokenType
	account.Scope = pa.Scope
	account.ExpiresAt = pa.ExpiresAt
	account.UpdatedAt = s.now()
	if err := s.store.UpdateAccountTokens(ctx, account); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to refresh provider tokens")
	}

	s.publish(domain.EventSignIn, user.ID, pa.Provider, false)
	return user.SessionUser(), nil
}

func oauthAccount(userID string, pa domain.ProviderAccount, now time.Time) *domain.Account {
	return &domain.Account{
		ID:                uuid.NewString(),
		UserID:            userID,
		Type:              domain.AccountTypeOAuth,
		Provider:          pa.Provider,
		ProviderAccountID: pa.ProviderAccountID,
		AccessToken:       pa.AccessToken,
		RefreshToken:      pa.RefreshToken,
		IDToken:           pa.IDToken,
		TokenType:         pa.TokenType,
		Scope:             pa.Scope,
		ExpiresAt:         pa.ExpiresAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (s *authService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUserNotFound
	}
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("current user: %w", err)
	}
	return user, nil
}

func (s *authService) publish(t domain.AuthEventType, userID, provider string, isNew bool) {
	if s.events == nil {
		return
	}
	s.events.Publish(domain.AuthEvent{
		Type:      t,
		UserID:    userID,
		Provider:  provider,
		IsNewUser: isNew,
		Timestamp: s.now(),
	})
}
