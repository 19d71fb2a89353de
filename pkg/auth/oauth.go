package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	githubAPIBaseURL  = "https://api.github.com"
)

// Profile is the normalized identity an OAuth provider reports after a
// successful code exchange. Raw keeps the provider's userinfo JSON so the
// store can persist it untouched.
type Profile struct {
	ProviderID string
	Email      string
	Name       string
	AvatarURL  string
	Raw        json.RawMessage
}

// OAuthProvider wraps one provider's authorization-code flow plus the
// provider-specific profile fetch.
type OAuthProvider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
	apiBaseURL  string
}

// NewGoogleProvider builds the Google OAuth flow.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *OAuthProvider {
	return &OAuthProvider{
		name: "google",
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// NewGithubProvider builds the GitHub OAuth flow.
func NewGithubProvider(clientID, clientSecret, redirectURL string) *OAuthProvider {
	return &OAuthProvider{
		name: "github",
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBaseURL: githubAPIBaseURL,
	}
}

// Name returns the provider identifier ("google" or "github").
func (p *OAuthProvider) Name() string {
	return p.name
}

// Enabled reports whether credentials were configured for this provider.
func (p *OAuthProvider) Enabled() bool {
	return p != nil && p.config.ClientID != "" && p.config.ClientSecret != ""
}

// AuthCodeURL returns the provider consent page URL for the given state.
func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades the callback code for a token and fetches the profile.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("exchange %s code: %w", p.name, err)
	}
	client := p.config.Client(ctx, token)
	switch p.name {
	case "google":
		return fetchGoogleProfile(ctx, client, p.userInfoURL)
	case "github":
		return fetchGithubProfile(ctx, client, p.apiBaseURL)
	default:
		return Profile{}, fmt.Errorf("unknown oauth provider: %s", p.name)
	}
}

func fetchGoogleProfile(ctx context.Context, client *http.Client, url string) (Profile, error) {
	raw, err := getJSON(ctx, client, url)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch google profile: %w", err)
	}
	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return Profile{}, fmt.Errorf("decode google profile: %w", err)
	}
	if info.Email == "" {
		return Profile{}, fmt.Errorf("google profile has no email")
	}
	return Profile{
		ProviderID: info.ID,
		Email:      strings.ToLower(info.Email),
		Name:       info.Name,
		AvatarURL:  info.Picture,
		Raw:        raw,
	}, nil
}

func fetchGithubProfile(ctx context.Context, client *http.Client, baseURL string) (Profile, error) {
	raw, err := getJSON(ctx, client, baseURL+"/user")
	if err != nil {
		return Profile{}, fmt.Errorf("fetch github profile: %w", err)
	}
	var info struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return Profile{}, fmt.Errorf("decode github profile: %w", err)
	}
	email := info.Email
	if email == "" {
		// The profile email is often private; the emails endpoint still
		// lists the primary verified address.
		email, err = fetchGithubPrimaryEmail(ctx, client, baseURL)
		if err != nil {
			return Profile{}, err
		}
	}
	name := info.Name
	if name == "" {
		name = info.Login
	}
	return Profile{
		ProviderID: strconv.FormatInt(info.ID, 10),
		Email:      strings.ToLower(email),
		Name:       name,
		AvatarURL:  info.AvatarURL,
		Raw:        raw,
	}, nil
}

func fetchGithubPrimaryEmail(ctx context.Context, client *http.Client, baseURL string) (string, error) {
	raw, err := getJSON(ctx, client, baseURL+"/user/emails")
	if err != nil {
		return "", fmt.Errorf("fetch github emails: %w", err)
	}
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.Unmarshal(raw, &emails); err != nil {
		return "", fmt.Errorf("decode github emails: %w", err)
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	for _, e := range emails {
		if e.Primary {
			return e.Email, nil
		}
	}
	return "", fmt.Errorf("github profile has no usable email")
}

func getJSON(ctx context.Context, client *http.Client, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status %s", resp.Status)
	}
	return body, nil
}
