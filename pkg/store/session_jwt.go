package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"rakhaai/internal/util"
)

const (
	sessionIssuer   = "rakhaai-auth"
	sessionAudience = "rakhaai-api"
)

// JWTSessionStore issues and verifies HS256 session tokens. Logout is
// implemented by revoking the token ID until its natural expiry.
type JWTSessionStore struct {
	secret  []byte
	ttl     time.Duration
	leeway  time.Duration
	revoker TokenRevoker
	now     func() time.Time
}

// NewJWTSessionStore builds a session store signing with the given secret.
func NewJWTSessionStore(secret string, ttl time.Duration, revoker TokenRevoker) (*JWTSessionStore, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if revoker == nil {
		revoker = NewMemoryTokenRevoker()
	}
	return &JWTSessionStore{
		secret:  []byte(secret),
		ttl:     ttl,
		leeway:  30 * time.Second,
		revoker: revoker,
		now:     time.Now,
	}, nil
}

// NewSession issues a signed token for the user.
func (s *JWTSessionStore) NewSession(userID string) (string, error) {
	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		ID:        util.NewID(),
		Subject:   userID,
		Issuer:    sessionIssuer,
		Audience:  jwt.ClaimStrings{sessionAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// GetUserIDByToken verifies the token and returns the user ID it was issued
// for. Expired, malformed, and revoked tokens report (_, false, nil).
func (s *JWTSessionStore) GetUserIDByToken(token string) (string, bool, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", false, nil
	}
	revoked, err := s.revoker.IsRevoked(claims.ID)
	if err != nil {
		return "", false, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return "", false, nil
	}
	return claims.Subject, true, nil
}

// DeleteSession revokes the token until it would have expired anyway.
func (s *JWTSessionStore) DeleteSession(token string) error {
	claims, err := s.parse(token)
	if err != nil {
		// Already invalid, nothing to revoke.
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time) + s.leeway
	return s.revoker.Revoke(claims.ID, ttl)
}

func (s *JWTSessionStore) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithAudience(sessionAudience),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, errors.New("missing subject, token ID, or expiry")
	}
	return claims, nil
}

var _ SessionStore = (*JWTSessionStore)(nil)
