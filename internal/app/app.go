// Package app implements the application core: auth flows, chat CRUD, and
// the chat-turn pipeline that feeds history to the model provider.
package app

import (
	"errors"
	"time"

	"rakhaai/pkg/ai"
	"rakhaai/pkg/auth"
	"rakhaai/pkg/storage"
	"rakhaai/pkg/store"
)

// Default style preamble prepended to every prompt.
const DefaultStylePrompt = "Kamu adalah asisten ramah."

// Options wires the collaborators an App needs.
type Options struct {
	Store     store.Store
	Sessions  store.SessionStore
	Photos    storage.PhotoStore
	Generator ai.ReplyGenerator

	// Providers maps provider name to its OAuth flow. Missing providers
	// 404 at the handler level.
	Providers map[string]*auth.OAuthProvider

	// StylePrompt overrides the default preamble. HistoryLimit bounds
	// the prompt window (default 10). PresignTTL bounds photo URLs
	// handed back to clients (default 15m).
	StylePrompt  string
	HistoryLimit int
	PresignTTL   time.Duration
}

// App is the application service behind the HTTP handlers.
type App struct {
	store        store.Store
	sessions     store.SessionStore
	photos       storage.PhotoStore
	generator    ai.ReplyGenerator
	providers    map[string]*auth.OAuthProvider
	stylePrompt  string
	historyLimit int
	presignTTL   time.Duration
}

// New validates the wiring and applies defaults.
func New(opts Options) (*App, error) {
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if opts.Photos == nil {
		return nil, errors.New("photo store is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("reply generator is required")
	}
	if opts.StylePrompt == "" {
		opts.StylePrompt = DefaultStylePrompt
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 10
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = 15 * time.Minute
	}
	return &App{
		store:        opts.Store,
		sessions:     opts.Sessions,
		photos:       opts.Photos,
		generator:    opts.Generator,
		providers:    opts.Providers,
		stylePrompt:  opts.StylePrompt,
		historyLimit: opts.HistoryLimit,
		presignTTL:   opts.PresignTTL,
	}, nil
}

// Provider returns the named OAuth flow, nil when not configured.
func (a *App) Provider(name string) *auth.OAuthProvider {
	p := a.providers[name]
	if p == nil || !p.Enabled() {
		return nil
	}
	return p
}
