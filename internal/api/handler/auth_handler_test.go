package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dweeb/marketplace/internal/api/authctx"
	"github.com/dweeb/marketplace/internal/api/middleware"
	"github.com/dweeb/marketplace/internal/core/domain"
	"github.com/dweeb/marketplace/internal/core/ports"
	"github.com/dweeb/marketplace/internal/core/service"
	"github.com/dweeb/marketplace/internal/infrastructure/db/memory"
	"github.com/dweeb/marketplace/internal/infrastructure/oauth"
)

type stubAuthService struct {
	authorizeFn   func(ctx context.Context, creds ports.Credentials) (*domain.SessionUser, error)
	registerFn    func(ctx context.Context, reg ports.Registration) (*domain.SessionUser, error)
	signInOAuthFn func(ctx context.Context, profile ports.OAuthProfile) (*domain.SessionUser, error)
	currentUserFn func(ctx context.Context, userID string) (*domain.User, error)
}

func (s *stubAuthService) Authorize(ctx context.Context, creds ports.Credentials) (*domain.SessionUser, error) {
	return s.authorizeFn(ctx, creds)
}

func (s *stubAuthService) Register(ctx context.Context, reg ports.Registration) (*domain.SessionUser, error) {
	return s.registerFn(ctx, reg)
}

func (s *stubAuthService) SignInOAuth(ctx context.Context, profile ports.OAuthProfile) (*domain.SessionUser, error) {
	return s.signInOAuthFn(ctx, profile)
}

func (s *stubAuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.currentUserFn(ctx, userID)
}

type recordingPublisher struct {
	events []domain.AuthEvent
}

func (p *recordingPublisher) Publish(event domain.AuthEvent) {
	p.events = append(p.events, event)
}

type fakeProvider struct {
	profile   *ports.OAuthProfile
	err       error
	gotCode   string
	gotVerify string
}

func (p *fakeProvider) Name() string { return "google" }

func (p *fakeProvider) ConsentURL(state, verifier string) string {
	return "https://accounts.example/auth?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code, verifier string) (*ports.OAuthProfile, error) {
	p.gotCode, p.gotVerify = code, verifier
	return p.profile, p.err
}

type fixture struct {
	handler  *AuthHandler
	sessions *service.SessionService
	states   *memory.StateStore
	events   *recordingPublisher
	provider *fakeProvider
	cookie   middleware.CookieConfig
}

func newFixture(t *testing.T, auth *stubAuthService) *fixture {
	t.Helper()
	f := &fixture{
		sessions: service.NewSessionService("test-secret", "", time.Hour),
		states:   memory.NewStateStore(time.Minute),
		events:   &recordingPublisher{},
		provider: &fakeProvider{},
		cookie:   middleware.NewCookieConfig("http://localhost:3000", time.Hour),
	}
	t.Cleanup(func() { _ = f.states.Close() })

	f.handler = NewAuthHandler(AuthHandlerConfig{
		Auth:      auth,
		Sessions:  f.sessions,
		Events:    f.events,
		States:    f.states,
		Providers: []oauth.Provider{f.provider},
		Cookie:    f.cookie,
		BaseURL:   "http://localhost:3000",
		Log:       zerolog.Nop(),
	})
	return f
}

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func sessionCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

var developer = &domain.SessionUser{ID: "u1", Email: "dev@example.com", Name: "Dev", Role: domain.RoleDeveloper}

func TestCredentialsCallback_JSON(t *testing.T) {
	f := newFixture(t, &stubAuthService{
		authorizeFn: func(_ context.Context, creds ports.Credentials) (*domain.SessionUser, error) {
			if creds.Email != "dev@example.com" || creds.Password != "secret1" {
				t.Fatalf("unexpected credentials %+v", creds)
			}
			return developer, nil
		},
	})

	body := `{"email":"dev@example.com","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/callback/credentials", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := newContext(req)

	data, err := f.handler.CredentialsCallback(c, &authctx.RequestContext{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	sess, ok := data.(*domain.Session)
	if !ok {
		t.Fatalf("expected *domain.Session, got %T", data)
	}
	if sess.User.ID != "u1" || sess.User.Role != domain.RoleDeveloper {
		t.Fatalf("unexpected session user %+v", sess.User)
	}

	ck := sessionCookie(rec, f.cookie.Name)
	if ck == nil || !ck.HttpOnly {
		t.Fatalf("expected http-only session cookie, got %+v", ck)
	}
	claims, err := f.sessions.Decode(ck.Value)
	if err != nil || claims.UserID != "u1" {
		t.Fatalf("cookie does not carry a valid token: %v", err)
	}
}

func TestCredentialsCallback_JSONFailureReturnsError(t *testing.T) {
	f := newFixture(t, &stubAuthService{
		authorizeFn: func(context.Context, ports.Credentials) (*domain.SessionUser, error) {
			return nil, domain.ErrWrongProvider
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/callback/credentials",
		strings.NewReader(`{"email":"g@example.com","password":"secret1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := newContext(req)

	_, err := f.handler.CredentialsCallback(c, &authctx.RequestContext{})
	if !errors.Is(err, domain.ErrWrongProvider) {
		t.Fatalf("expected ErrWrongProvider, got %v", err)
	}
	if sessionCookie(rec, f.cookie.Name) != nil {
		t.Fatal("no cookie expected on failure")
	}
}

func TestCredentialsCallback_FormFailureRedirectsToLogin(t *testing.T) {
	f := newFixture(t, &stubAuthService{
		authorizeFn: func(context.Context, ports.Credentials) (*domain.SessionUser, error) {
			return nil, domain.ErrInvalidCredentials
		},
	})

	form := url.Values{"email": {"a@example.com"}, "password": {"wrong-pw"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/callback/credentials", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	c, rec := newContext(req)

	if _, err := f.handler.CredentialsCallback(c, &authctx.RequestContext{}); err != nil {
		t.Fatalf("expected redirect, got error %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/login?error=CredentialsSignin" {
		t.Fatalf("unexpected location %q", loc)
	}
}

func TestCredentialsCallback_FormSuccessRedirectsToCallback(t *testing.T) {
	f := newFixture(t, &stubAuthService{
		authorizeFn: func(context.Context, ports.Credentials) (*domain.SessionUser, error) {
			return developer, nil
		},
	})

	form := url.Values{"email": {"dev@example.com"}, "password": {"secret1"}, "callbackUrl": {"/dashboard/developer"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/callback/credentials", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	c, rec := newContext(req)

	if _, err := f.handler.CredentialsCallback(c, &authctx.RequestContext{}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/dashboard/developer" {
		t.Fatalf("unexpected location %q", loc)
	}
	if sessionCookie(rec, f.cookie.Name) == nil {
		t.Fatal("expected session cookie")
	}
}

func TestSignUp_StartsSession(t *testing.T) {
	f := newFixture(t, &stubAuthService{
		registerFn: func(_ context.Context, reg ports.Registration) (*domain.SessionUser, error) {
			return &domain.SessionUser{ID: "u9", Email: reg.Email, Name: reg.Name, Role: domain.Role(reg.Role)}, nil
		},
	})

	body := `{"name":"Cli","email":"cli@example.com","password":"secret1","role":"CLIENT"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := newContext(req)

	data, err := f.handler.SignUp(c, &authctx.RequestContext{})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if sess := data.(*domain.Session); sess.User.ID != "u9" || sess.User.Role != domain.RoleClient {
		t.Fatalf("unexpected session %+v", sess)
	}
	if sessionCookie(rec, f.cookie.Name) == nil {
		t.Fatal("expected session cookie")
	}
}

func TestSignUp_PropagatesConflict(t *testing.T) {
	f := newFixture(t, &stubAuthService{
		registerFn: func(context.Context, ports.Registration) (*domain.SessionUser, error) {
			return nil, domain.ErrUserExists
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, _ := newContext(req)

	if _, err := f.handler.SignUp(c, &authctx.RequestContext{}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestSession_AnonymousIsNull(t *testing.T) {
	f := newFixture(t, &stubAuthService{})
	c, _ := newContext(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))

	data, err := f.handler.Session(c, &authctx.RequestContext{})
	if err != nil || data != nil {
		t.Fatalf("expected nil session, got %v / %v", data, err)
	}
}

func TestSession_Materialized(t *testing.T) {
	f := newFixture(t, &stubAuthService{})
	_, claims, err := f.sessions.Issue(developer, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	c, _ := newContext(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))

	data, err := f.handler.Session(c, &authctx.RequestContext{User: developer, Claims: claims})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if sess := data.(*domain.Session); sess.User.ID != "u1" || sess.User.Role != domain.RoleDeveloper {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestSignOut_ClearsCookieAndPublishes(t *testing.T) {
	f := newFixture(t, &stubAuthService{})
	_, claims, _ := f.sessions.Issue(developer, nil)
	c, rec := newContext(httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil))

	data, err := f.handler.SignOut(c, &authctx.RequestContext{User: developer, Claims: claims})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got := data.(map[string]string)["url"]; got != "/" {
		t.Fatalf("unexpected url %q", got)
	}
	ck := sessionCookie(rec, f.cookie.Name)
	if ck == nil || ck.MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got %+v", ck)
	}
	if len(f.events.events) != 1 || f.events.events[0].Type != domain.EventSignOut || f.events.events[0].UserID != "u1" {
		t.Fatalf("unexpected events %+v", f.events.events)
	}
}

func TestProviders(t *testing.T) {
	f := newFixture(t, &stubAuthService{})
	c, _ := newContext(httptest.NewRequest(http.MethodGet, "/api/auth/providers", nil))

	data, _ := f.handler.Providers(c, &authctx.RequestContext{})
	raw, _ := json.Marshal(data)

	var got map[string]providerInfo
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["credentials"].Type != "credentials" {
		t.Fatalf("missing credentials provider: %s", raw)
	}
	if got["google"].CallbackURL != "http://localhost:3000/api/auth/callback/google" {
		t.Fatalf("unexpected google provider: %s", raw)
	}
}

func TestOAuthSignIn_StoresStateAndRedirects(t *testing.T) {
	f := newFixture(t, &stubAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/signin/google?callbackUrl=https://evil.example/x", nil)
	c, rec := newContext(req)
	c.SetParamNames("provider")
	c.SetParamValues("google")

	if _, err := f.handler.OAuthSignIn(c, &authctx.RequestContext{}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	if err != nil || loc.Host != "accounts.example" {
		t.Fatalf("unexpected location %q", rec.Header().Get(echo.HeaderLocation))
	}

	state, err := f.states.Consume(context.Background(), loc.Query().Get("state"))
	if err != nil {
		t.Fatalf("state not stored: %v", err)
	}
	if state.CodeVerifier == "" {
		t.Fatal("expected a PKCE verifier")
	}
	if state.CallbackURL != "/dashboard" {
		t.Fatalf("foreign callback should fall back to /dashboard, got %q", state.CallbackURL)
	}
}

func TestOAuthSignIn_UnknownProvider(t *testing.T) {
	f := newFixture(t, &stubAuthService{})
	c, _ := newContext(httptest.NewRequest(http.MethodGet, "/api/auth/signin/github", nil))
	c.SetParamNames("provider")
	c.SetParamValues("github")

	_, err := f.handler.OAuthSignIn(c, &authctx.RequestContext{})
	if err == nil || !strings.Contains(err.Error(), "Unknown provider") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func oauthCallback(t *testing.T, f *fixture, query string) *httptest.ResponseRecorder {
	t.Helper()
	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/api/auth/callback/google?"+query, nil))
	c.SetParamNames("provider")
	c.SetParamValues("google")
	if _, err := f.handler.OAuthCallback(c, &authctx.RequestContext{}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	return rec
}

func TestOAuthCallback_Success(t *testing.T) {
	var got ports.OAuthProfile
	f := newFixture(t, &stubAuthService{
		signInOAuthFn: func(_ context.Context, profile ports.OAuthProfile) (*domain.SessionUser, error) {
			got = profile
			return &domain.SessionUser{ID: "g1", Email: profile.Email, Role: domain.RoleClient}, nil
		},
	})
	f.provider.profile = &ports.OAuthProfile{
		Email:   "g@example.com",
		Account: domain.ProviderAccount{Provider: "google", ProviderAccountID: "sub-1", AccessToken: "at-1"},
	}
	_ = f.states.Save(context.Background(), "st", ports.OAuthState{CodeVerifier: "ver", CallbackURL: "/dashboard/client"}, time.Minute)

	rec := oauthCallback(t, f, "code=abc&state=st")

	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/dashboard/client" {
		t.Fatalf("unexpected location %q", loc)
	}
	if f.provider.gotCode != "abc" || f.provider.gotVerify != "ver" {
		t.Fatalf("exchange got code=%q verifier=%q", f.provider.gotCode, f.provider.gotVerify)
	}
	if got.Email != "g@example.com" {
		t.Fatalf("unexpected profile %+v", got)
	}

	ck := sessionCookie(rec, f.cookie.Name)
	if ck == nil {
		t.Fatal("expected session cookie")
	}
	claims, err := f.sessions.Decode(ck.Value)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.Provider != "google" || claims.AccessToken != "at-1" {
		t.Fatalf("expected provider data in token, got %+v", claims)
	}

	if _, err := f.states.Consume(context.Background(), "st"); !errors.Is(err, domain.ErrStateNotFound) {
		t.Fatalf("state should be one-shot, got %v", err)
	}
}

func TestOAuthCallback_UnknownState(t *testing.T) {
	f := newFixture(t, &stubAuthService{})

	rec := oauthCallback(t, f, "code=abc&state=nope")
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/login?error=OAuthCallback" {
		t.Fatalf("unexpected location %q", loc)
	}
}

func TestOAuthCallback_NotLinked(t *testing.T) {
	f := newFixture(t, &stubAuthService{
		signInOAuthFn: func(context.Context, ports.OAuthProfile) (*domain.SessionUser, error) {
			return nil, domain.ErrOAuthAccountNotLinked
		},
	})
	f.provider.profile = &ports.OAuthProfile{Email: "dev@example.com"}
	_ = f.states.Save(context.Background(), "st", ports.OAuthState{CodeVerifier: "v"}, time.Minute)

	rec := oauthCallback(t, f, "code=abc&state=st")
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/login?error=OAuthAccountNotLinked" {
		t.Fatalf("unexpected location %q", loc)
	}
	if sessionCookie(rec, f.cookie.Name) != nil {
		t.Fatal("no cookie expected")
	}
}

func TestOAuthCallback_ProviderDenied(t *testing.T) {
	f := newFixture(t, &stubAuthService{})

	rec := oauthCallback(t, f, "error=access_denied")
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/login?error=AccessDenied" {
		t.Fatalf("unexpected location %q", loc)
	}
}

func TestSafeRedirect(t *testing.T) {
	h := NewAuthHandler(AuthHandlerConfig{BaseURL: "https://dweeb.example", Log: zerolog.Nop()})

	cases := map[string]string{
		"":                                "/dashboard",
		"/projects/1":                     "/projects/1",
		"//evil.example":                  "/dashboard",
		"https://evil.example/a":          "/dashboard",
		"https://dweeb.example/admin?x=1": "/admin?x=1",
		"http://dweeb.example/admin":      "/dashboard",
	}
	for in, want := range cases {
		if got := h.safeRedirect(in); got != want {
			t.Errorf("safeRedirect(%q) = %q, want %q", in, got, want)
		}
	}
}
