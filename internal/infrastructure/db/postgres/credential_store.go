package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dweeb/marketplace/internal/core/domain"
	"github.com/dweeb/marketplace/internal/core/ports"
)

const uniqueViolation = "23505"

type CredentialStore struct {
	db *DB
}

var _ ports.CredentialStore = (*CredentialStore)(nil)

func NewCredentialStore(db *DB) *CredentialStore {
	return &CredentialStore{db: db}
}

const selectUser = `SELECT u.id, u.email, u.name, u.image, u.role, u.email_verified, u.created_at, u.updated_at,
	c.id, c.created_at, d.id, d.created_at
	FROM users u
	LEFT JOIN client_profiles c ON c.user_id = u.id
	LEFT JOIN developer_profiles d ON d.user_id = u.id`

func (s *CredentialStore) findUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	var (
		u               domain.User
		role            string
		clientID, devID *string
		clientAt, devAt *time.Time
	)
	err := s.db.Pool.QueryRow(ctx, selectUser+" WHERE "+where, arg).Scan(
		&u.ID, &u.Email, &u.Name, &u.Image, &role, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
		&clientID, &clientAt, &devID, &devAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	u.Role = domain.Role(role)
	if clientID != nil {
		u.Client = &domain.ClientProfile{ID: *clientID, UserID: u.ID, CreatedAt: derefTime(clientAt)}
	}
	if devID != nil {
		u.Developer = &domain.DeveloperProfile{ID: *devID, UserID: u.ID, CreatedAt: derefTime(devAt)}
	}
	return &u, nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func (s *CredentialStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, "u.email = $1", email)
}

func (s *CredentialStore) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}
	return s.findUser(ctx, "u.id = $1", id)
}

const selectAccount = `SELECT id, user_id, type, provider, provider_account_id,
	COALESCE(password_hash, ''), COALESCE(access_token, ''), COALESCE(refresh_token, ''),
	COALESCE(id_token, ''), COALESCE(token_type, ''), COALESCE(scope, ''),
	expires_at, created_at, updated_at
	FROM accounts`

func (s *CredentialStore) findAccount(ctx context.Context, where string, args ...any) (*domain.Account, error) {
	var (
		a       domain.Account
		accType string
	)
	err := s.db.Pool.QueryRow(ctx, selectAccount+" WHERE "+where, args...).Scan(
		&a.ID, &a.UserID, &accType, &a.Provider, &a.ProviderAccountID,
		&a.PasswordHash, &a.AccessToken, &a.RefreshToken,
		&a.IDToken, &a.TokenType, &a.Scope,
		&a.ExpiresAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	a.Type = domain.AccountType(accType)
	return &a, nil
}

func (s *CredentialStore) FindAccount(ctx context.Context, userID, provider string) (*domain.Account, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, domain.ErrAccountNotFound
	}
	return s.findAccount(ctx, "user_id = $1 AND provider = $2", userID, provider)
}

func (s *CredentialStore) FindAccountByProvider(ctx context.Context, provider, providerAccountID string) (*domain.Account, error) {
	return s.findAccount(ctx, "provider = $1 AND provider_account_id = $2", provider, providerAccountID)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *CredentialStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *CredentialStore) CreateUser(ctx context.Context, user *domain.User, account *domain.Account) (*domain.User, error) {
	if account != nil {
		if err := account.Validate(); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
	}

	created := *user
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO users (id, email, name, image, role, email_verified, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			user.ID, user.Email, user.Name, user.Image, string(user.Role), user.EmailVerified, user.CreatedAt, user.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrUserExists
			}
			return fmt.Errorf("insert user: %w", err)
		}

		switch user.Role {
		case domain.RoleClient:
			p := &domain.ClientProfile{ID: uuid.NewString(), UserID: user.ID, CreatedAt: user.CreatedAt}
			if _, err := tx.Exec(ctx, `INSERT INTO client_profiles (id, user_id, created_at) VALUES ($1, $2, $3)`,
				p.ID, p.UserID, p.CreatedAt); err != nil {
				return fmt.Errorf("insert client profile: %w", err)
			}
			created.Client = p
		case domain.RoleDeveloper:
			p := &domain.DeveloperProfile{ID: uuid.NewString(), UserID: user.ID, CreatedAt: user.CreatedAt}
			if _, err := tx.Exec(ctx, `INSERT INTO developer_profiles (id, user_id, created_at) VALUES ($1, $2, $3)`,
				p.ID, p.UserID, p.CreatedAt); err != nil {
				return fmt.Errorf("insert developer profile: %w", err)
			}
			created.Developer = p
		}

		if account != nil {
			return insertAccount(ctx, tx, account)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *CredentialStore) LinkAccount(ctx context.Context, account *domain.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("link account: %w", err)
	}
	return insertAccount(ctx, s.db.Pool, account)
}

func insertAccount(ctx context.Context, ex execer, a *domain.Account) error {
	_, err := ex.Exec(ctx,
		`INSERT INTO accounts (id, user_id, type, provider, provider_account_id, password_hash,
			access_token, refresh_token, id_token, token_type, scope, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.UserID, string(a.Type), a.Provider, a.ProviderAccountID, nullable(a.PasswordHash),
		nullable(a.AccessToken), nullable(a.RefreshToken), nullable(a.IDToken), nullable(a.TokenType), nullable(a.Scope),
		a.ExpiresAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAccountExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *CredentialStore) UpdateAccountTokens(ctx context.Context, a *domain.Account) error {
	tag, err := s.db.Pool.Exec(ctx,
		`UPDATE accounts SET access_token = $2, refresh_token = $3, id_token = $4, token_type = $5,
			scope = $6, expires_at = $7, updated_at = $8
		 WHERE id = $1`,
		a.ID, nullable(a.AccessToken), nullable(a.RefreshToken), nullable(a.IDToken), nullable(a.TokenType),
		nullable(a.Scope), a.ExpiresAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update account tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.db.Pool.Ping(ctx)
}

func (s *CredentialStore) Close(context.Context) error {
	s.db.Close()
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
