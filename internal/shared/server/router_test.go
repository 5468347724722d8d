package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"docsort-backend/internal/shared/auth"
	"docsort-backend/internal/shared/config"
	"docsort-backend/internal/shared/server/middleware"
)

type stubHealth struct{ ok bool }

func (s stubHealth) Status(context.Context) (map[string]any, bool) {
	return map[string]any{"ok": s.ok}, s.ok
}

type pingRoutes struct{ path string }

func (p pingRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET(p.path, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": middleware.UserIDFromContext(c)})
	})
}

func newTestRouter(t *testing.T, health HealthChecker, cfg config.Config) (*gin.Engine, *auth.Issuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	issuer, err := auth.NewIssuer("router-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	r := NewRouter(RouterDeps{
		Config:    cfg,
		Verifier:  issuer,
		Health:    health,
		Public:    []RouteRegistrar{pingRoutes{path: "/open"}},
		Protected: []RouteRegistrar{pingRoutes{path: "/closed"}},
	})
	return r, issuer
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthReflectsChecker(t *testing.T) {
	r, _ := newTestRouter(t, stubHealth{ok: true}, config.Config{})
	if w := get(r, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	r, _ = newTestRouter(t, stubHealth{ok: false}, config.Config{})
	if w := get(r, "/health", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, nil, config.Config{})
	w := get(r, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("expected request counter in metrics output")
	}
}

func TestProtectedGroupRequiresToken(t *testing.T) {
	r, issuer := newTestRouter(t, nil, config.Config{})

	if w := get(r, "/open", ""); w.Code != http.StatusOK {
		t.Fatalf("public route: expected 200, got %d", w.Code)
	}
	if w := get(r, "/closed", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("protected route: expected 401, got %d", w.Code)
	}

	token, err := issuer.Sign("account-9", "a@x.com")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	w := get(r, "/closed", token)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "account-9") {
		t.Fatalf("protected route with token: %d %s", w.Code, w.Body.String())
	}
}

func TestPublicRoutesAreRateLimited(t *testing.T) {
	r, _ := newTestRouter(t, nil, config.Config{AuthRateLimitRPS: 0.001, AuthRateLimitBurst: 1})

	if w := get(r, "/open", ""); w.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w.Code)
	}
	w := get(r, "/open", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestAddr(t *testing.T) {
	for in, want := range map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"} {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
