package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dweeb/marketplace/internal/api/authctx"
	"github.com/dweeb/marketplace/internal/core/service"
)

// Session resolves the session token, if any, into an authctx.RequestContext.
// It never rejects a request; guards further down decide what anonymous
// callers may do.
func Session(sessions *service.SessionService, cookie CookieConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rc := &authctx.RequestContext{}
			if raw := sessionToken(c.Request(), cookie.Name); raw != "" {
				if claims, err := sessions.Decode(raw); err == nil {
					sess := sessions.Session(claims)
					rc.User = &sess.User
					rc.Claims = claims
				}
			}
			authctx.Set(c, rc)
			return next(c)
		}
	}
}

// sessionToken prefers a bearer token over the cookie.
func sessionToken(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if ck, err := r.Cookie(cookieName); err == nil {
		return ck.Value
	}
	return ""
}
