package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/dweeb/marketplace/internal/api/authctx"
	"github.com/dweeb/marketplace/internal/pkg/config"
)

// ConfigSummary is the non-secret view of the running configuration.
type ConfigSummary struct {
	Environment          string   `json:"environment"`
	AppURL               string   `json:"appUrl"`
	AuthURL              string   `json:"authUrl"`
	Database             string   `json:"database"`
	StateStore           string   `json:"stateStore"`
	Providers            []string `json:"providers"`
	PlatformFeeBps       int      `json:"platformFeeBps"`
	SessionMaxAge        string   `json:"sessionMaxAge"`
	DefaultSecret        bool     `json:"defaultSecret"`
	StripeConfigured     bool     `json:"stripeConfigured"`
	StripePublishableKey string   `json:"stripePublishableKey,omitempty"`
}

type AdminHandler struct {
	summary ConfigSummary
}

// NewAdminHandler snapshots cfg. database and stateStore name the backends
// actually selected at startup.
func NewAdminHandler(cfg *config.Config, database, stateStore string) *AdminHandler {
	providers := []string{"credentials"}
	if cfg.GoogleEnabled() {
		providers = append(providers, "google")
	}
	return &AdminHandler{summary: ConfigSummary{
		Environment:          cfg.NodeEnv,
		AppURL:               cfg.AppURL,
		AuthURL:              cfg.NextAuthURL,
		Database:             database,
		StateStore:           stateStore,
		Providers:            providers,
		PlatformFeeBps:       cfg.PlatformFeeBps,
		SessionMaxAge:        cfg.Auth.SessionMaxAge.String(),
		DefaultSecret:        cfg.UsesDefaultSecret(),
		StripeConfigured:     cfg.StripeSecretKey != "",
		StripePublishableKey: cfg.StripePublishableKey,
	}}
}

// Config godoc
// @Summary      Settings summary
// @Description  Non-secret configuration. Admins only.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ConfigSummary
// @Failure      401  {object}  response.Failure
// @Failure      403  {object}  response.Failure
// @Router       /api/admin/config [get]
func (h *AdminHandler) Config(_ echo.Context, _ *authctx.RequestContext) (any, error) {
	return h.summary, nil
}
