package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	sessionCookie      = "next-auth.session-token"
	secureCookiePrefix = "__Secure-"
)

// CookieConfig describes the session cookie. Deployments served over https
// get the __Secure- prefixed name and the Secure flag.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

func NewCookieConfig(baseURL string, maxAge time.Duration) CookieConfig {
	secure := strings.HasPrefix(strings.ToLower(baseURL), "https://")
	name := sessionCookie
	if secure {
		name = secureCookiePrefix + sessionCookie
	}
	return CookieConfig{Name: name, Secure: secure, MaxAge: maxAge}
}

func (cc CookieConfig) Set(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     cc.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cc.MaxAge.Seconds()),
		Expires:  time.Now().Add(cc.MaxAge),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (cc CookieConfig) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     cc.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
