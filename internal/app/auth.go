package app

import (
	"fmt"
	"strings"
	"time"

	"rakhaai/internal/util"
	"rakhaai/pkg/auth"
	"rakhaai/pkg/domain"
)

// Register creates a local account and opens a session. New accounts start
// on the Free plan.
func (a *App) Register(name, email, password string) (domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return domain.User{}, "", fmt.Errorf("name and email are required")
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, "", err
	}
	taken, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check email: %w", err)
	}
	if taken {
		return domain.User{}, "", ErrEmailTaken
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Provider:     domain.ProviderLocal,
		Plan:         domain.PlanFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, "", fmt.Errorf("save user: %w", err)
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("open session: %w", err)
	}
	return user, token, nil
}

// Login authenticates a local account. Unknown email, OAuth-only account,
// and wrong password all produce the same ErrInvalidCredentials.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("load user: %w", err)
	}
	if !ok || user.PasswordHash == "" {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("open session: %w", err)
	}
	return user, token, nil
}

// ResolveOrCreateUser reconciles an OAuth profile with the account keyed by
// its email. An existing account (local or other provider) is overwritten
// with the incoming provider fields; a missing one is created on the Free
// plan. The merge is deterministic: last provider login wins.
func (a *App) ResolveOrCreateUser(provider domain.Provider, profile auth.Profile) (domain.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		return domain.User{}, "", fmt.Errorf("provider %s returned no email", provider)
	}
	now := time.Now().UTC()
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("load user: %w", err)
	}
	if !ok {
		user = domain.User{
			ID:        util.NewID(),
			Email:     email,
			Plan:      domain.PlanFree,
			CreatedAt: now,
		}
	}
	user.Provider = provider
	user.ProviderID = profile.ProviderID
	user.AvatarURL = profile.AvatarURL
	user.Profile = profile.Raw
	if profile.Name != "" {
		user.Name = profile.Name
	}
	user.UpdatedAt = now
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, "", fmt.Errorf("save user: %w", err)
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("open session: %w", err)
	}
	return user, token, nil
}

// Logout revokes the presented session token. Revoking an already invalid
// token is a no-op.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// UserFromToken resolves the session token to its user.
func (a *App) UserFromToken(token string) (domain.User, error) {
	userID, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil {
		return domain.User{}, fmt.Errorf("verify session: %w", err)
	}
	if !ok {
		return domain.User{}, ErrInvalidSession
	}
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrInvalidSession
	}
	return user, nil
}
