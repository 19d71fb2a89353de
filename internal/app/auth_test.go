package app

import (
	"encoding/json"
	"errors"
	"testing"

	"rakhaai/pkg/auth"
	"rakhaai/pkg/domain"
)

func TestRegisterAndLogin(t *testing.T) {
	a := newTestApp(t)
	user, token, err := a.Register("Rakha", "rakha@example.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Plan != domain.PlanFree || user.Provider != domain.ProviderLocal {
		t.Fatalf("defaults: %+v", user)
	}
	if token == "" {
		t.Fatalf("register should open a session")
	}

	logged, token2, err := a.Login("rakha@example.com", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != user.ID || token2 == "" {
		t.Fatalf("login result: %+v token=%q", logged, token2)
	}

	resolved, err := a.UserFromToken(token2)
	if err != nil || resolved.ID != user.ID {
		t.Fatalf("user from token: %+v err=%v", resolved, err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	a := newTestApp(t)
	if _, _, err := a.Register("A", "dup@example.com", "secret123"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, _, err := a.Register("B", "dup@example.com", "secret456")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	a := newTestApp(t)
	_, _, err := a.Register("A", "short@example.com", "12345")
	if !errors.Is(err, auth.ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestLoginConstantError(t *testing.T) {
	a := newTestApp(t)
	if _, _, err := a.Register("A", "a@example.com", "secret123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Unknown email and wrong password are indistinguishable.
	_, _, errUnknown := a.Login("nobody@example.com", "secret123")
	_, _, errWrong := a.Login("a@example.com", "wrongpass")
	if !errors.Is(errUnknown, ErrInvalidCredentials) || !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials twice, got %v / %v", errUnknown, errWrong)
	}
}

func TestLoginRejectsOAuthOnlyAccount(t *testing.T) {
	a := newTestApp(t)
	_, _, err := a.ResolveOrCreateUser(domain.ProviderGoogle, auth.Profile{
		ProviderID: "g-1", Email: "oauth@example.com", Name: "OAuth Only",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, _, err := a.Login("oauth@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestResolveOrCreateUserCreatesFreshAccount(t *testing.T) {
	a := newTestApp(t)
	raw := json.RawMessage(`{"sub":"g-1"}`)
	user, token, err := a.ResolveOrCreateUser(domain.ProviderGoogle, auth.Profile{
		ProviderID: "g-1", Email: "new@example.com", Name: "New User",
		AvatarURL: "https://example.com/a.png", Raw: raw,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if user.Plan != domain.PlanFree || user.Provider != domain.ProviderGoogle || user.ProviderID != "g-1" {
		t.Fatalf("new user: %+v", user)
	}
	if user.PasswordHash != "" {
		t.Fatalf("OAuth account must not carry a password hash")
	}
	if token == "" {
		t.Fatalf("resolve should open a session")
	}
}

func TestResolveOrCreateUserOverwritesExistingAccount(t *testing.T) {
	a := newTestApp(t)
	local, _, err := a.Register("Rakha", "merge@example.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	merged, _, err := a.ResolveOrCreateUser(domain.ProviderGithub, auth.Profile{
		ProviderID: "gh-7", Email: "MERGE@example.com", Name: "Rakha GH",
		AvatarURL: "https://example.com/gh.png", Raw: json.RawMessage(`{"id":7}`),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if merged.ID != local.ID {
		t.Fatalf("merge must reuse the account keyed by email")
	}
	if merged.Provider != domain.ProviderGithub || merged.ProviderID != "gh-7" {
		t.Fatalf("provider fields not overwritten: %+v", merged)
	}
	if merged.Name != "Rakha GH" || merged.AvatarURL != "https://example.com/gh.png" {
		t.Fatalf("profile fields not overwritten: %+v", merged)
	}

	// The local password still works after the merge.
	if _, _, err := a.Login("merge@example.com", "secret123"); err != nil {
		t.Fatalf("login after merge: %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	a := newTestApp(t)
	_, token, err := a.Register("Rakha", "out@example.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := a.Logout(token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := a.UserFromToken(token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}
