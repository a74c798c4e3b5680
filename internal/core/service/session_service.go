package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dweeb/marketplace/internal/core/domain"
)

// DefaultSessionMaxAge matches the 30 day session lifetime.
const DefaultSessionMaxAge = 30 * 24 * time.Hour

// ErrInvalidToken wraps every decode failure.
var ErrInvalidToken = errors.New("invalid session token")

// Claims is the payload of a session token.
type Claims struct {
	UserID      string      `json:"id,omitempty"`
	Role        domain.Role `json:"role,omitempty"`
	Name        string      `json:"name,omitempty"`
	Email       string      `json:"email,omitempty"`
	Picture     string      `json:"picture,omitempty"`
	Provider    string      `json:"provider,omitempty"`
	AccessToken string      `json:"accessToken,omitempty"`
	jwt.RegisteredClaims
}

// SessionService issues and reads stateless HS256 session tokens.
type SessionService struct {
	secret []byte
	issuer string
	maxAge time.Duration
	now    func() time.Time
}

func NewSessionService(secret, issuer string, maxAge time.Duration) *SessionService {
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	return &SessionService{
		secret: []byte(secret),
		issuer: issuer,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// MaxAge is the token lifetime, also used for the cookie.
func (s *SessionService) MaxAge() time.Duration { return s.maxAge }

// Callback enriches token on sign-in. user is non-nil only on the initial
// sign-in and account only when the sign-in came through an OAuth provider.
// The input is never modified.
func (s *SessionService) Callback(token *Claims, user *domain.SessionUser, account *domain.ProviderAccount) *Claims {
	var out Claims
	if token != nil {
		out = *token
	}
	if user != nil {
		out.UserID = user.ID
		out.Subject = user.ID
		out.Role = user.Role
		out.Name = user.Name
		out.Email = user.Email
		out.Picture = user.Image
	}
	if account != nil {
		out.Provider = account.Provider
		out.AccessToken = account.AccessToken
	}
	return &out
}

// Encode stamps iat, exp, jti and iss onto a copy of claims and signs it.
func (s *SessionService) Encode(claims *Claims) (string, error) {
	raw, _, err := s.sign(claims)
	return raw, err
}

func (s *SessionService) sign(claims *Claims) (string, *Claims, error) {
	if claims == nil {
		return "", nil, errors.New("encode session: nil claims")
	}
	c := *claims
	now := s.now()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(s.maxAge))
	c.RegisteredClaims.ID = uuid.NewString()
	if s.issuer != "" {
		c.Issuer = s.issuer
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &c).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("encode session: %w", err)
	}
	return raw, &c, nil
}

// Decode verifies the signature and expiry of raw.
func (s *SessionService) Decode(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Session materializes the client-visible session from claims.
func (s *SessionService) Session(claims *Claims) *domain.Session {
	sess := &domain.Session{
		User: domain.SessionUser{
			ID:    claims.UserID,
			Email: claims.Email,
			Name:  claims.Name,
			Image: claims.Picture,
			Role:  claims.Role,
		},
	}
	if claims.ExpiresAt != nil {
		sess.Expires = claims.ExpiresAt.UTC()
	}
	return sess
}

// Issue runs the sign-in callback and signs the result.
func (s *SessionService) Issue(user *domain.SessionUser, account *domain.ProviderAccount) (string, *Claims, error) {
	if user == nil {
		return "", nil, errors.New("issue session: nil user")
	}
	return s.sign(s.Callback(nil, user, account))
}
