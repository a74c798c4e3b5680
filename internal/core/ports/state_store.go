package ports

import (
	"context"
	"time"
)

// OAuthState is kept server-side between the consent redirect and the
// provider callback.
type OAuthState struct {
	CodeVerifier string `json:"code_verifier"`
	CallbackURL  string `json:"callback_url,omitempty"`
}

// StateStore holds one-shot OAuth state values.
type StateStore interface {
	Save(ctx context.Context, state string, data OAuthState, ttl time.Duration) error
	// Consume returns and deletes the state. Unknown or expired states yield
	// domain.ErrStateNotFound.
	Consume(ctx context.Context, state string) (OAuthState, error)
}
