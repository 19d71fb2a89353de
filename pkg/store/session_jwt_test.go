package store

import (
	"testing"
	"time"
)

func newTestSessions(t *testing.T) *JWTSessionStore {
	t.Helper()
	s, err := NewJWTSessionStore("test-secret", time.Hour, NewMemoryTokenRevoker())
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestSessions(t)
	token, err := s.NewSession("u-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	userID, ok, err := s.GetUserIDByToken(token)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !ok || userID != "u-1" {
		t.Fatalf("expected u-1, got %q ok=%v", userID, ok)
	}
}

func TestSessionRejectsGarbage(t *testing.T) {
	s := newTestSessions(t)
	if _, ok, err := s.GetUserIDByToken("not-a-token"); ok || err != nil {
		t.Fatalf("garbage token accepted: ok=%v err=%v", ok, err)
	}
}

func TestSessionRejectsWrongSecret(t *testing.T) {
	s := newTestSessions(t)
	other, err := NewJWTSessionStore("other-secret", time.Hour, nil)
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	token, err := other.NewSession("u-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatalf("token signed with wrong secret accepted")
	}
}

func TestSessionExpires(t *testing.T) {
	s := newTestSessions(t)
	token, err := s.NewSession("u-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatalf("expired token accepted")
	}
}

func TestDeleteSessionRevokesToken(t *testing.T) {
	s := newTestSessions(t)
	token, err := s.NewSession("u-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatalf("revoked token accepted")
	}
	// Deleting again or deleting garbage is a no-op.
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if err := s.DeleteSession("not-a-token"); err != nil {
		t.Fatalf("delete garbage: %v", err)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	s := newTestSessions(t)
	first, err := s.NewSession("u-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	second, err := s.NewSession("u-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.DeleteSession(first); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(second); !ok {
		t.Fatalf("revoking one session should not affect another")
	}
}
