package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGoogleProviderAuthCodeURL(t *testing.T) {
	p := NewGoogleProvider("client-id", "client-secret", "http://localhost:8080/api/auth/google/callback")
	url := p.AuthCodeURL("state-123")
	if !strings.Contains(url, "client_id=client-id") {
		t.Fatalf("auth url missing client id: %s", url)
	}
	if !strings.Contains(url, "state=state-123") {
		t.Fatalf("auth url missing state: %s", url)
	}
	if !p.Enabled() {
		t.Fatalf("provider with credentials should be enabled")
	}
	if NewGithubProvider("", "", "").Enabled() {
		t.Fatalf("provider without credentials should be disabled")
	}
}

func TestFetchGoogleProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "g-1",
			"email":   "Someone@Example.com",
			"name":    "Someone",
			"picture": "https://img.example/a.png",
		})
	}))
	defer srv.Close()

	profile, err := fetchGoogleProfile(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("fetch google profile: %v", err)
	}
	if profile.ProviderID != "g-1" || profile.Email != "someone@example.com" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if len(profile.Raw) == 0 {
		t.Fatalf("expected raw profile payload")
	}
}

func TestFetchGithubProfileFallsBackToEmailsEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":         42,
				"login":      "octo",
				"name":       "",
				"email":      "",
				"avatar_url": "https://img.example/octo.png",
			})
		case "/user/emails":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"email": "secondary@example.com", "primary": false, "verified": true},
				{"email": "octo@example.com", "primary": true, "verified": true},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	profile, err := fetchGithubProfile(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("fetch github profile: %v", err)
	}
	if profile.ProviderID != "42" {
		t.Fatalf("unexpected provider id: %q", profile.ProviderID)
	}
	if profile.Email != "octo@example.com" {
		t.Fatalf("unexpected email: %q", profile.Email)
	}
	if profile.Name != "octo" {
		t.Fatalf("expected login fallback for empty name, got %q", profile.Name)
	}
}
