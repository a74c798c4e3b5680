package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dweeb/marketplace/internal/api/authctx"
	"github.com/dweeb/marketplace/internal/api/metrics"
)

type RouteClass int

const (
	Protected RouteClass = iota
	Public
	GuestOnly
)

func (rc RouteClass) String() string {
	switch rc {
	case Public:
		return "public"
	case GuestOnly:
		return "guest"
	default:
		return "protected"
	}
}

type GateConfig struct {
	Public    []string
	GuestOnly []string
	// LoginPath receives unauthenticated visitors of protected pages.
	LoginPath string
	// HomePath receives authenticated visitors of guest-only pages.
	HomePath string
}

func DefaultGateConfig() GateConfig {
	return GateConfig{
		Public:    []string{"/", "/api/auth", "/_next", "/static", "/favicon.ico", "/swagger", "/health", "/metrics"},
		GuestOnly: []string{"/login", "/signup"},
		LoginPath: "/login",
		HomePath:  "/dashboard",
	}
}

// matchPrefix matches whole path segments. The root only matches itself.
func matchPrefix(path, prefix string) bool {
	if prefix == "/" {
		return path == "/"
	}
	prefix = strings.TrimSuffix(prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Classify picks the class of the longest matching prefix. Unmatched paths
// are protected.
func (cfg GateConfig) Classify(path string) RouteClass {
	class, best := Protected, -1
	consider := func(prefixes []string, rc RouteClass) {
		for _, p := range prefixes {
			if len(p) > best && matchPrefix(path, p) {
				class, best = rc, len(p)
			}
		}
	}
	consider(cfg.Public, Public)
	consider(cfg.GuestOnly, GuestOnly)
	return class
}

// Gate protects page routes. API routes (under /api/) are left to RBAC.
func Gate(cfg GateConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if strings.HasPrefix(path, "/api/") {
				return next(c)
			}

			class := cfg.Classify(path)
			authenticated := authctx.From(c).Authenticated()

			switch {
			case class == Protected && !authenticated:
				metrics.GateDecisionsTotal.WithLabelValues(class.String(), "redirect").Inc()
				return c.Redirect(http.StatusTemporaryRedirect, cfg.LoginPath+"?"+url.Values{"callbackUrl": {path}}.Encode())
			case class == GuestOnly && authenticated:
				metrics.GateDecisionsTotal.WithLabelValues(class.String(), "redirect").Inc()
				return c.Redirect(http.StatusTemporaryRedirect, cfg.HomePath)
			}

			metrics.GateDecisionsTotal.WithLabelValues(class.String(), "pass").Inc()
			return next(c)
		}
	}
}
