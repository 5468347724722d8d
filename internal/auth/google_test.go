package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	sharedauth "docsort-backend/internal/shared/auth"
	"docsort-backend/internal/users"
)

func newGoogleTestRouter(t *testing.T, svc *GoogleService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/"))
	return r
}

func newAccounts(t *testing.T) (*users.Service, *sharedauth.Issuer) {
	t.Helper()
	issuer, err := sharedauth.NewIssuer("google-test-secret", time.Hour)
	require.NoError(t, err)
	return users.NewService(users.NewMemoryRepo(), issuer), issuer
}

func TestGoogleStartNotConfigured(t *testing.T) {
	accounts, _ := newAccounts(t)
	svc := NewGoogleService("", "", "", "http://ui", accounts)
	assert.False(t, svc.Configured())

	w := httptest.NewRecorder()
	newGoogleTestRouter(t, svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google/start", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGoogleStartRedirectsWithState(t *testing.T) {
	accounts, _ := newAccounts(t)
	svc := NewGoogleService("client", "secret", "http://api/auth/google/callback", "http://ui", accounts)

	w := httptest.NewRecorder()
	newGoogleTestRouter(t, svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google/start", nil))
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "client", loc.Query().Get("client_id"))
	assert.NotEmpty(t, loc.Query().Get("state"))
}

func TestGoogleCallbackRejectsUnknownState(t *testing.T) {
	accounts, _ := newAccounts(t)
	svc := NewGoogleService("client", "secret", "http://api/cb", "http://ui", accounts)
	r := newGoogleTestRouter(t, svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=forged&code=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoogleCallbackIssuesTokenForAccount(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "provider-token",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		case "/userinfo":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":             "g-123",
				"email":          "g@example.com",
				"verified_email": true,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer provider.Close()

	accounts, issuer := newAccounts(t)
	svc := NewGoogleService("client", "secret", "http://api/cb", "http://ui/done", accounts)
	svc.oauthConfig.Endpoint = oauth2.Endpoint{AuthURL: provider.URL + "/auth", TokenURL: provider.URL + "/token"}
	svc.userInfoURL = provider.URL + "/userinfo"
	svc.stateStore.put("state-1", time.Now().Add(time.Minute))

	w := httptest.NewRecorder()
	newGoogleTestRouter(t, svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=state-1&code=abc", nil))
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "ui", loc.Host)

	claims, err := issuer.Verify(loc.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "g@example.com", claims.Email)

	user, err := accounts.FindOrCreateByEmail(context.Background(), "g@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
}

func TestStateStoreConsumeOnce(t *testing.T) {
	store := newStateStore()
	store.put("s", time.Now().Add(time.Minute))
	assert.True(t, store.consume("s"))
	assert.False(t, store.consume("s"))

	store.put("old", time.Now().Add(-time.Second))
	assert.False(t, store.consume("old"))
}

func TestAppendToken(t *testing.T) {
	got, err := appendToken("http://ui/cb?x=1", "tok")
	require.NoError(t, err)
	assert.Equal(t, "http://ui/cb?token=tok&x=1", got)

	_, err = appendToken("", "tok")
	assert.Error(t, err)
}
