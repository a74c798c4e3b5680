// Package authctx carries the per-request authentication result from the
// session middleware to guards and handlers.
package authctx

import (
	"github.com/labstack/echo/v4"

	"github.com/dweeb/marketplace/internal/core/domain"
	"github.com/dweeb/marketplace/internal/core/service"
)

const contextKey = "auth"

// RequestContext is the resolved identity of a request. User is nil for
// anonymous requests.
type RequestContext struct {
	User   *domain.SessionUser
	Claims *service.Claims
}

func (rc *RequestContext) Authenticated() bool {
	return rc != nil && rc.User != nil
}

func Set(c echo.Context, rc *RequestContext) {
	c.Set(contextKey, rc)
}

// From never returns nil.
func From(c echo.Context) *RequestContext {
	if rc, ok := c.Get(contextKey).(*RequestContext); ok && rc != nil {
		return rc
	}
	return &RequestContext{}
}
