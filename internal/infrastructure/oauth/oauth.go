// Package oauth implements the OAuth identity providers.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/oauth2"

	"github.com/dweeb/marketplace/internal/core/ports"
)

type Provider interface {
	Name() string
	// ConsentURL builds the provider redirect carrying state and the PKCE
	// challenge for verifier.
	ConsentURL(state, verifier string) string
	// Exchange trades the authorization code for tokens and the user profile.
	Exchange(ctx context.Context, code, verifier string) (*ports.OAuthProfile, error)
}

func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// GenerateVerifier returns a fresh PKCE code verifier.
func GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}
