package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dweeb/marketplace/internal/api/authctx"
	"github.com/dweeb/marketplace/internal/api/metrics"
	"github.com/dweeb/marketplace/internal/api/middleware"
	"github.com/dweeb/marketplace/internal/api/response"
	"github.com/dweeb/marketplace/internal/core/domain"
	"github.com/dweeb/marketplace/internal/core/ports"
	"github.com/dweeb/marketplace/internal/core/service"
	"github.com/dweeb/marketplace/internal/infrastructure/oauth"
	"github.com/dweeb/marketplace/internal/pkg/validation"
)

const (
	stateTTL        = 10 * time.Minute
	loginPath       = "/login"
	defaultRedirect = "/dashboard"
)

// Error codes placed on /login?error=...
const (
	errCredentialsSignin     = "CredentialsSignin"
	errOAuthSignin           = "OAuthSignin"
	errOAuthCallback         = "OAuthCallback"
	errOAuthAccountNotLinked = "OAuthAccountNotLinked"
	errAccessDenied          = "AccessDenied"
)

type AuthHandler struct {
	auth      ports.AuthService
	sessions  *service.SessionService
	events    ports.EventPublisher
	states    ports.StateStore
	providers map[string]oauth.Provider
	cookie    middleware.CookieConfig
	baseURL   *url.URL
	log       zerolog.Logger
}

type AuthHandlerConfig struct {
	Auth      ports.AuthService
	Sessions  *service.SessionService
	Events    ports.EventPublisher
	States    ports.StateStore
	Providers []oauth.Provider
	Cookie    middleware.CookieConfig
	BaseURL   string
	Log       zerolog.Logger
}

func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	providers := make(map[string]oauth.Provider, len(cfg.Providers))
	for _, p := range cfg.Providers {
		providers[p.Name()] = p
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		base = &url.URL{}
	}
	return &AuthHandler{
		auth:      cfg.Auth,
		sessions:  cfg.Sessions,
		events:    cfg.Events,
		states:    cfg.States,
		providers: providers,
		cookie:    cfg.Cookie,
		baseURL:   base,
		log:       cfg.Log,
	}
}

type providerInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	SigninURL   string `json:"signinUrl"`
	CallbackURL string `json:"callbackUrl"`
}

// Providers godoc
// @Summary      List sign-in providers
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]providerInfo
// @Router       /api/auth/providers [get]
func (h *AuthHandler) Providers(_ echo.Context, _ *authctx.RequestContext) (any, error) {
	base := strings.TrimSuffix(h.baseURL.String(), "/")
	out := map[string]providerInfo{
		domain.ProviderCredentials: {
			ID:          domain.ProviderCredentials,
			Name:        "Credentials",
			Type:        "credentials",
			SigninURL:   base + "/api/auth/signin/credentials",
			CallbackURL: base + "/api/auth/callback/credentials",
		},
	}
	for id := range h.providers {
		out[id] = providerInfo{
			ID:          id,
			Name:        strings.ToUpper(id[:1]) + id[1:],
			Type:        "oauth",
			SigninURL:   base + "/api/auth/signin/" + id,
			CallbackURL: base + "/api/auth/callback/" + id,
		}
	}
	return out, nil
}

func isFormPost(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEApplicationForm) || strings.HasPrefix(ct, echo.MIMEMultipartForm)
}

// CredentialsCallback godoc
// @Summary      Sign in with email and password
// @Description  JSON bodies get the session envelope. Form posts are redirected to callbackUrl, or to /login?error=CredentialsSignin on failure.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      ports.Credentials  true  "Credentials"
// @Success      200   {object}  domain.Session
// @Failure      400   {object}  response.Failure
// @Failure      401   {object}  response.Failure
// @Router       /api/auth/callback/credentials [post]
func (h *AuthHandler) CredentialsCallback(c echo.Context, _ *authctx.RequestContext) (any, error) {
	form := isFormPost(c)

	var creds ports.Credentials
	if err := c.Bind(&creds); err != nil {
		if form {
			return nil, h.loginError(c, errCredentialsSignin)
		}
		return nil, validation.NewError("body", "Invalid request body")
	}

	user, err := h.auth.Authorize(c.Request().Context(), creds)
	metrics.SignInAttemptsTotal.WithLabelValues(domain.ProviderCredentials, signInResult(err)).Inc()
	if err != nil {
		if errors.Is(err, domain.ErrWrongProvider) {
			h.log.Info().Str("email", creds.Email).Msg("credentials sign-in for oauth-only user")
		}
		if form {
			return nil, h.loginError(c, errCredentialsSignin)
		}
		return nil, err
	}

	sess, err := h.startSession(c, user, nil)
	if err != nil {
		return nil, err
	}
	if form {
		return nil, c.Redirect(http.StatusFound, h.safeRedirect(c.FormValue("callbackUrl")))
	}
	return sess, nil
}

// SignUp godoc
// @Summary      Register with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      ports.Registration  true  "Registration"
// @Success      200   {object}  domain.Session
// @Failure      400   {object}  response.Failure
// @Failure      409   {object}  response.Failure
// @Router       /api/auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context, _ *authctx.RequestContext) (any, error) {
	var reg ports.Registration
	if err := c.Bind(&reg); err != nil {
		return nil, validation.NewError("body", "Invalid request body")
	}

	user, err := h.auth.Register(c.Request().Context(), reg)
	if err != nil {
		return nil, err
	}
	return h.startSession(c, user, nil)
}

// Session godoc
// @Summary      Current session
// @Description  data is null when the request carries no valid session.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.Session
// @Router       /api/auth/session [get]
func (h *AuthHandler) Session(_ echo.Context, rc *authctx.RequestContext) (any, error) {
	if !rc.Authenticated() || rc.Claims == nil {
		return nil, nil
	}
	return h.sessions.Session(rc.Claims), nil
}

// SignOut godoc
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/auth/signout [post]
func (h *AuthHandler) SignOut(c echo.Context, rc *authctx.RequestContext) (any, error) {
	h.cookie.Clear(c)
	if rc.Authenticated() {
		provider := domain.ProviderCredentials
		if rc.Claims != nil && rc.Claims.Provider != "" {
			provider = rc.Claims.Provider
		}
		h.publish(domain.EventSignOut, rc.User.ID, provider)
	}

	target := h.safeRedirect(c.FormValue("callbackUrl"))
	if target == defaultRedirect {
		target = "/"
	}
	if isFormPost(c) {
		return nil, c.Redirect(http.StatusFound, target)
	}
	return map[string]string{"url": target}, nil
}

// OAuthSignIn godoc
// @Summary      Start an OAuth sign-in
// @Tags         auth
// @Param        provider     path   string  true   "Provider id"
// @Param        callbackUrl  query  string  false  "Where to land after sign-in"
// @Success      302
// @Router       /api/auth/signin/{provider} [get]
func (h *AuthHandler) OAuthSignIn(c echo.Context, _ *authctx.RequestContext) (any, error) {
	p, ok := h.providers[c.Param("provider")]
	if !ok {
		return nil, response.NewError(http.StatusNotFound, "Unknown provider", nil)
	}

	state, err := oauth.GenerateState()
	if err != nil {
		h.log.Error().Err(err).Msg("generate oauth state")
		return nil, h.loginError(c, errOAuthSignin)
	}
	verifier := oauth.GenerateVerifier()

	data := ports.OAuthState{CodeVerifier: verifier, CallbackURL: h.safeRedirect(c.QueryParam("callbackUrl"))}
	if err := h.states.Save(c.Request().Context(), state, data, stateTTL); err != nil {
		h.log.Error().Err(err).Str("provider", p.Name()).Msg("save oauth state")
		return nil, h.loginError(c, errOAuthSignin)
	}
	return nil, c.Redirect(http.StatusFound, p.ConsentURL(state, verifier))
}

// OAuthCallback godoc
// @Summary      Finish an OAuth sign-in
// @Description  Sets the session cookie and redirects. Failures redirect to /login?error=<code>.
// @Tags         auth
// @Param        provider  path   string  true  "Provider id"
// @Param        code      query  string  true  "Authorization code"
// @Param        state     query  string  true  "State issued at sign-in"
// @Success      302
// @Router       /api/auth/callback/{provider} [get]
func (h *AuthHandler) OAuthCallback(c echo.Context, _ *authctx.RequestContext) (any, error) {
	p, ok := h.providers[c.Param("provider")]
	if !ok {
		return nil, response.NewError(http.StatusNotFound, "Unknown provider", nil)
	}
	ctx := c.Request().Context()

	if c.QueryParam("error") != "" {
		metrics.SignInAttemptsTotal.WithLabelValues(p.Name(), "denied").Inc()
		return nil, h.loginError(c, errAccessDenied)
	}

	state, err := h.states.Consume(ctx, c.QueryParam("state"))
	if err != nil {
		h.log.Warn().Err(err).Str("provider", p.Name()).Msg("oauth state rejected")
		metrics.SignInAttemptsTotal.WithLabelValues(p.Name(), "invalid_state").Inc()
		return nil, h.loginError(c, errOAuthCallback)
	}

	profile, err := p.Exchange(ctx, c.QueryParam("code"), state.CodeVerifier)
	if err != nil {
		h.log.Error().Err(err).Str("provider", p.Name()).Msg("oauth exchange failed")
		metrics.SignInAttemptsTotal.WithLabelValues(p.Name(), "error").Inc()
		return nil, h.loginError(c, errOAuthCallback)
	}

	user, err := h.auth.SignInOAuth(ctx, *profile)
	metrics.SignInAttemptsTotal.WithLabelValues(p.Name(), signInResult(err)).Inc()
	if err != nil {
		if errors.Is(err, domain.ErrOAuthAccountNotLinked) {
			return nil, h.loginError(c, errOAuthAccountNotLinked)
		}
		h.log.Error().Err(err).Str("provider", p.Name()).Msg("oauth sign-in failed")
		return nil, h.loginError(c, errOAuthCallback)
	}

	if _, err := h.startSession(c, user, &profile.Account); err != nil {
		h.log.Error().Err(err).Msg("issue session")
		return nil, h.loginError(c, errOAuthCallback)
	}

	target := state.CallbackURL
	if target == "" {
		target = defaultRedirect
	}
	return nil, c.Redirect(http.StatusFound, target)
}

func (h *AuthHandler) startSession(c echo.Context, user *domain.SessionUser, account *domain.ProviderAccount) (*domain.Session, error) {
	raw, claims, err := h.sessions.Issue(user, account)
	if err != nil {
		return nil, err
	}
	h.cookie.Set(c, raw)

	provider := domain.ProviderCredentials
	if account != nil {
		provider = account.Provider
	}
	metrics.SessionsIssuedTotal.WithLabelValues(provider).Inc()
	return h.sessions.Session(claims), nil
}

func (h *AuthHandler) loginError(c echo.Context, code string) error {
	return c.Redirect(http.StatusFound, loginPath+"?"+url.Values{"error": {code}}.Encode())
}

// safeRedirect keeps redirects on this site. Relative paths and absolute URLs
// on the configured origin are allowed; anything else lands on the dashboard.
func (h *AuthHandler) safeRedirect(target string) string {
	if target == "" {
		return defaultRedirect
	}
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.HasPrefix(target, "/\\") {
		return target
	}
	u, err := url.Parse(target)
	if err != nil || u.Host == "" || h.baseURL.Host == "" {
		return defaultRedirect
	}
	if u.Scheme == h.baseURL.Scheme && u.Host == h.baseURL.Host {
		out := u.EscapedPath()
		if out == "" {
			out = "/"
		}
		if u.RawQuery != "" {
			out += "?" + u.RawQuery
		}
		return out
	}
	return defaultRedirect
}

func (h *AuthHandler) publish(t domain.AuthEventType, userID, provider string) {
	if h.events == nil {
		return
	}
	h.events.Publish(domain.AuthEvent{Type: t, UserID: userID, Provider: provider, Timestamp: time.Now().UTC()})
}

func signInResult(err error) string {
	var ve *validation.Error
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &ve):
		return "validation"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrWrongProvider):
		return "wrong_provider"
	case errors.Is(err, domain.ErrOAuthAccountNotLinked):
		return "not_linked"
	default:
		return "error"
	}
}
