package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/dweeb/marketplace/internal/api/authctx"
)

// Page is the placeholder body served on page routes. The frontend renders
// the real pages; these exist so the gate and the page guards have targets.
type Page struct {
	Name string `json:"page"`
	User any    `json:"user"`
}

type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Render returns a handler that serves the named page.
func (h *PageHandler) Render(name string) func(echo.Context, *authctx.RequestContext) (any, error) {
	return func(_ echo.Context, rc *authctx.RequestContext) (any, error) {
		p := Page{Name: name}
		if rc.Authenticated() {
			p.User = rc.User
		}
		return p, nil
	}
}
