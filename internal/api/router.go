package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/dweeb/marketplace/internal/api/handler"
	"github.com/dweeb/marketplace/internal/api/middleware"
	"github.com/dweeb/marketplace/internal/api/response"
	"github.com/dweeb/marketplace/internal/core/domain"
	"github.com/dweeb/marketplace/internal/core/ports"
	"github.com/dweeb/marketplace/internal/core/service"
	"github.com/dweeb/marketplace/internal/infrastructure/http"
	"github.com/dweeb/marketplace/internal/infrastructure/http/handlers"
	"github.com/dweeb/marketplace/internal/infrastructure/oauth"
	"github.com/dweeb/marketplace/internal/pkg/config"
)

// Deps are the wired services the router mounts.
type Deps struct {
	Config    *config.Config
	Log       zerolog.Logger
	Auth      ports.AuthService
	Sessions  *service.SessionService
	Fees      ports.FeeService
	Events    ports.EventPublisher
	States    ports.StateStore
	Providers []oauth.Provider
	// Database and StateStore name the selected backends for the admin summary.
	Database   string
	StateStore string
	Readiness  map[string]handlers.Pinger
	// Registerer and Gatherer default to the global prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := http.NewServer(http.ServerConfig{
		Log:          d.Log,
		Dependencies: d.Readiness,
		Registerer:   d.Registerer,
		Gatherer:     d.Gatherer,
	})
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, response.Options{
		Production:       d.Config.IsProd(),
		MaskProviderHint: d.Config.Auth.MaskProviderHint,
	})

	cookie := middleware.NewCookieConfig(d.Config.NextAuthURL, d.Sessions.MaxAge())
	e.Use(middleware.Session(d.Sessions, cookie))
	e.Use(middleware.Gate(middleware.DefaultGateConfig()))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(handler.AuthHandlerConfig{
		Auth:      d.Auth,
		Sessions:  d.Sessions,
		Events:    d.Events,
		States:    d.States,
		Providers: d.Providers,
		Cookie:    cookie,
		BaseURL:   d.Config.NextAuthURL,
		Log:       d.Log,
	})
	userHandler := handler.NewUserHandler(d.Auth)
	feeHandler := handler.NewFeeHandler(d.Fees)
	adminHandler := handler.NewAdminHandler(d.Config, d.Database, d.StateStore)
	pages := handler.NewPageHandler()

	apiGroup := e.Group("/api")
	if !d.Config.IsProd() {
		apiGroup.Use(middleware.DevCORS())
	}

	// --- Identity routes ---
	authGroup := apiGroup.Group("/auth")
	authGroup.GET("/providers", response.Wrap(authHandler.Providers))
	authGroup.GET("/session", response.Wrap(authHandler.Session))
	authGroup.POST("/signout", response.Wrap(authHandler.SignOut))
	authGroup.POST("/signup", response.Wrap(authHandler.SignUp))
	authGroup.POST("/callback/credentials", response.Wrap(authHandler.CredentialsCallback))
	authGroup.GET("/signin/:provider", response.Wrap(authHandler.OAuthSignIn))
	authGroup.GET("/callback/:provider", response.Wrap(authHandler.OAuthCallback))

	// --- Role-guarded API ---
	signedIn := middleware.RBAC(domain.RoleAdmin, domain.RoleDeveloper, domain.RoleClient)
	apiGroup.GET("/users/me", response.Wrap(userHandler.Me), signedIn)
	apiGroup.GET("/fees/quote", response.Wrap(feeHandler.Quote), signedIn)
	apiGroup.GET("/admin/config", response.Wrap(adminHandler.Config), middleware.RBAC(domain.RoleAdmin))

	// --- Pages ---
	e.GET("/", response.Wrap(pages.Render("home")))
	e.GET("/login", response.Wrap(pages.Render("login")))
	e.GET("/signup", response.Wrap(pages.Render("signup")))
	e.GET("/dashboard", response.Wrap(pages.Render("dashboard")), middleware.RequireUser())
	e.GET("/dashboard/developer", response.Wrap(pages.Render("developer")), middleware.RequireUser(domain.RoleDeveloper))
	e.GET("/dashboard/client", response.Wrap(pages.Render("client")), middleware.RequireUser(domain.RoleClient))
	e.GET("/admin", response.Wrap(pages.Render("admin")), middleware.RequireUser(domain.RoleAdmin))

	return e
}
