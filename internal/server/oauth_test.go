package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rakhaai/internal/app"
	"rakhaai/pkg/auth"
	"rakhaai/pkg/storage"
	"rakhaai/pkg/store"
)

func newOAuthServer(t *testing.T) *Server {
	t.Helper()
	sessions, err := store.NewJWTSessionStore("test-secret", time.Hour, nil)
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	a, err := app.New(app.Options{
		Store:     store.NewMemoryStore(),
		Sessions:  sessions,
		Photos:    storage.NewMemoryPhotoStore(),
		Generator: &stubGenerator{reply: "ok"},
		Providers: map[string]*auth.OAuthProvider{
			"google": auth.NewGoogleProvider("client-id", "client-secret", "http://localhost:8080/api/auth/google/callback"),
		},
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return newTestServer(t, Config{App: a})
}

func TestOAuthRedirectSetsStateCookie(t *testing.T) {
	s := newOAuthServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.Contains(location, "accounts.google.com") {
		t.Fatalf("redirect location %q", location)
	}
	var state string
	for _, c := range rec.Result().Cookies() {
		if c.Name == "oauth_state" {
			state = c.Value
		}
	}
	if state == "" {
		t.Fatalf("state cookie missing")
	}
	if !strings.Contains(location, "state="+state) {
		t.Fatalf("state %q not in redirect %q", state, location)
	}
}

func TestOAuthCallbackRejectsBadState(t *testing.T) {
	s := newOAuthServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=forged&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "genuine"})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
}

func TestOAuthCallbackRequiresState(t *testing.T) {
	s := newOAuthServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=abc", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
}
