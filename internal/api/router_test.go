package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/dweeb/marketplace/internal/core/domain"
	"github.com/dweeb/marketplace/internal/core/ports"
	"github.com/dweeb/marketplace/internal/core/service"
	"github.com/dweeb/marketplace/internal/infrastructure/db/memory"
	"github.com/dweeb/marketplace/internal/pkg/config"
)

type routerAuthStub struct{}

func (routerAuthStub) Authorize(context.Context, ports.Credentials) (*domain.SessionUser, error) {
	return nil, domain.ErrInvalidCredentials
}

func (routerAuthStub) Register(context.Context, ports.Registration) (*domain.SessionUser, error) {
	return nil, domain.ErrUserExists
}

func (routerAuthStub) SignInOAuth(context.Context, ports.OAuthProfile) (*domain.SessionUser, error) {
	return nil, domain.ErrOAuthAccountNotLinked
}

func (routerAuthStub) CurrentUser(_ context.Context, id string) (*domain.User, error) {
	return &domain.User{ID: id, Email: id + "@example.com", Role: domain.RoleClient}, nil
}

type routerFixture struct {
	server   http.Handler
	sessions *service.SessionService
}

func newRouterFixture(t *testing.T, env string) *routerFixture {
	t.Helper()
	cfg := &config.Config{NodeEnv: env, NextAuthURL: "http://localhost:3000", PlatformFeeBps: 2000}
	sessions := service.NewSessionService("router-secret", "", time.Hour)
	fees, err := service.NewFeeService(cfg.PlatformFeeBps)
	if err != nil {
		t.Fatalf("fee service: %v", err)
	}
	states := memory.NewStateStore(time.Minute)
	t.Cleanup(func() { _ = states.Close() })

	reg := prometheus.NewRegistry()
	e := NewRouter(Deps{
		Config:     cfg,
		Log:        zerolog.Nop(),
		Auth:       routerAuthStub{},
		Sessions:   sessions,
		Fees:       fees,
		States:     states,
		Database:   "postgres",
		StateStore: "memory",
		Registerer: reg,
		Gatherer:   reg,
	})
	return &routerFixture{server: e, sessions: sessions}
}

func (f *routerFixture) do(t *testing.T, method, path string, role domain.Role) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		raw, _, err := f.sessions.Issue(&domain.SessionUser{ID: "u-" + string(role), Role: role}, nil)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+raw)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func TestRouter_GateRedirects(t *testing.T) {
	f := newRouterFixture(t, "development")

	cases := []struct {
		name     string
		path     string
		role     domain.Role
		status   int
		location string
	}{
		{"protected page without token", "/dashboard", "", http.StatusTemporaryRedirect, "/login?callbackUrl=%2Fdashboard"},
		{"guest page with token", "/login", domain.RoleClient, http.StatusTemporaryRedirect, "/dashboard"},
		{"root without token", "/", "", http.StatusOK, ""},
		{"dashboard with token", "/dashboard", domain.RoleClient, http.StatusOK, ""},
		{"developer page as client", "/dashboard/developer", domain.RoleClient, http.StatusTemporaryRedirect, "/dashboard"},
		{"admin page as admin", "/admin", domain.RoleAdmin, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tc.path, tc.role)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, rec.Code, rec.Body.String())
			}
			if tc.location != "" && rec.Header().Get("Location") != tc.location {
				t.Fatalf("expected location %q, got %q", tc.location, rec.Header().Get("Location"))
			}
		})
	}
}

func TestRouter_APIRoleGuard(t *testing.T) {
	f := newRouterFixture(t, "development")

	rec := f.do(t, http.MethodGet, "/api/users/me", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := decode(t, rec); body["success"] != false || body["error"] != "Unauthorized" {
		t.Fatalf("unexpected body %v", body)
	}

	rec = f.do(t, http.MethodGet, "/api/admin/config", domain.RoleDeveloper)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/admin/config", domain.RoleAdmin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := decode(t, rec)["data"].(map[string]any)
	if data["database"] != "postgres" || data["stateStore"] != "memory" {
		t.Fatalf("unexpected summary %v", data)
	}
}

func TestRouter_MeAndFees(t *testing.T) {
	f := newRouterFixture(t, "development")

	rec := f.do(t, http.MethodGet, "/api/users/me", domain.RoleClient)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if data := decode(t, rec)["data"].(map[string]any); data["id"] != "u-CLIENT" {
		t.Fatalf("unexpected user %v", data)
	}

	rec = f.do(t, http.MethodGet, "/api/fees/quote?amount=100", domain.RoleDeveloper)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if data := decode(t, rec)["data"].(map[string]any); data["platformFee"] != "20" || data["developerPayout"] != "80" {
		t.Fatalf("unexpected quote %v", data)
	}

	rec = f.do(t, http.MethodGet, "/api/fees/quote?amount=0", domain.RoleDeveloper)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if details := decode(t, rec)["details"].(map[string]any); details["amount"] == nil {
		t.Fatalf("expected amount details")
	}
}

func TestRouter_SessionEndpoint(t *testing.T) {
	f := newRouterFixture(t, "development")

	rec := f.do(t, http.MethodGet, "/api/auth/session", "")
	body := decode(t, rec)
	if rec.Code != http.StatusOK || body["success"] != true || body["data"] != nil {
		t.Fatalf("expected null session, got %d %v", rec.Code, body)
	}

	rec = f.do(t, http.MethodGet, "/api/auth/session", domain.RoleDeveloper)
	user := decode(t, rec)["data"].(map[string]any)["user"].(map[string]any)
	if user["id"] != "u-DEVELOPER" || user["role"] != "DEVELOPER" {
		t.Fatalf("unexpected session user %v", user)
	}
}

func TestRouter_DevCORSOnlyOutsideProduction(t *testing.T) {
	for env, want := range map[string]string{"development": "*", "production": ""} {
		f := newRouterFixture(t, env)
		req := httptest.NewRequest(http.MethodGet, "/api/auth/providers", nil)
		req.Header.Set("Origin", "http://elsewhere.example")
		rec := httptest.NewRecorder()
		f.server.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Errorf("%s: expected allow-origin %q, got %q", env, want, got)
		}
	}
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t, "production")

	if rec := f.do(t, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/health/ready", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with no dependencies, got %d", rec.Code)
	}
}
