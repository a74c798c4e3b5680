package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dweeb/marketplace/internal/api/authctx"
	"github.com/dweeb/marketplace/internal/core/domain"
)

// RequireUser guards a page. Anonymous visitors go to the login page; users
// without one of roles go to the dashboard. No roles means any signed-in user.
func RequireUser(roles ...domain.Role) echo.MiddlewareFunc {
	allowed := roleSet(roles)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rc := authctx.From(c)
			if !rc.Authenticated() {
				return c.Redirect(http.StatusTemporaryRedirect, "/login")
			}
			if len(allowed) > 0 {
				if _, ok := allowed[rc.User.Role]; !ok {
					return c.Redirect(http.StatusTemporaryRedirect, "/dashboard")
				}
			}
			return next(c)
		}
	}
}

func roleSet(roles []domain.Role) map[domain.Role]struct{} {
	set := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}
