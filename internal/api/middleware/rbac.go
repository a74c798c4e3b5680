package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dweeb/marketplace/internal/api/authctx"
	"github.com/dweeb/marketplace/internal/api/metrics"
	"github.com/dweeb/marketplace/internal/api/response"
	"github.com/dweeb/marketplace/internal/core/domain"
)

// RBAC guards API routes: 401 without a session, 403 when the role is not
// allowed. With no roles any authenticated user passes.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := roleSet(allowedRoles)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rc := authctx.From(c)
			if !rc.Authenticated() {
				return deny(response.Unauthorized())
			}
			if len(allowed) > 0 {
				if _, ok := allowed[rc.User.Role]; !ok {
					return deny(response.Forbidden())
				}
			}
			return next(c)
		}
	}
}

func deny(err *response.Error) error {
	metrics.AuthorizationDeniedTotal.WithLabelValues(strconv.Itoa(err.Status)).Inc()
	return err
}
