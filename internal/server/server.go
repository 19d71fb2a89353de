// Package server exposes the HTTP API: auth, chat CRUD, and the chat-turn
// endpoint, in front of the app service.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"rakhaai/internal/app"
	"rakhaai/internal/ratelimit"
	"rakhaai/internal/util"
	"rakhaai/pkg/auth"
	"rakhaai/pkg/domain"
	"rakhaai/pkg/quota"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App

	// AuthLimiter rate limits register/login per client IP. Nil disables
	// limiting (local development).
	AuthLimiter *ratelimit.FixedWindowLimiter

	// TrustedProxies controls which peers may set forwarded-for headers.
	TrustedProxies *util.TrustedProxies

	// FrontendURL receives the post-OAuth redirect and is the allowed
	// CORS origin.
	FrontendURL string
}

// Server exposes the HTTP endpoints.
type Server struct {
	app         *app.App
	authLimiter *ratelimit.FixedWindowLimiter
	proxies     *util.TrustedProxies
	frontendURL string
	mux         *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:         cfg.App,
		authLimiter: cfg.AuthLimiter,
		proxies:     cfg.TrustedProxies,
		frontendURL: strings.TrimSuffix(cfg.FrontendURL, "/"),
		mux:         http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler behind the middleware chain.
func (s *Server) Router() http.Handler {
	var h http.Handler = s.mux
	h = util.WithRequestLog(h)
	h = util.WithRequestID(h)
	h = util.WithCORS(s.frontendURL, h)
	h = util.WithSecurityHeaders(h)
	return h
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/register", s.handleRegister)
	s.mux.HandleFunc("/api/login", s.handleLogin)
	s.mux.HandleFunc("/api/logout", s.handleLogout)
	s.mux.HandleFunc("/api/auth/", s.handleOAuth)

	// chats
	s.mux.Handle("/api/chats", s.authenticated(s.handleChats))
	s.mux.Handle("/api/chats/", s.authenticated(s.handleChatByID))
	s.mux.Handle("/api/chat/", s.authenticated(s.handleSendMessage))
	s.mux.Handle("/api/updateChat/", s.authenticated(s.handleRenameChat))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, err := s.app.UserFromToken(token)
		if err != nil {
			if errors.Is(err, app.ErrInvalidSession) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		next(w, r, user)
	})
}

// allowAuthAttempt applies the per-IP limiter to register/login.
func (s *Server) allowAuthAttempt(r *http.Request, action string) bool {
	if s.authLimiter == nil {
		return true
	}
	return s.authLimiter.Allow(action + ":" + util.ClientIP(r, s.proxies))
}

// writeAppError maps app and quota errors to HTTP statuses. Unknown errors
// log and return 500 without leaking internals.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var limitErr *quota.LimitError
	switch {
	case errors.Is(err, app.ErrChatNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrEmptyTurn), errors.Is(err, auth.ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &limitErr), errors.Is(err, quota.ErrInvalidPlan):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		slog.Warn("missing bearer prefix", "path", r.URL.Path)
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		slog.Warn("empty bearer token", "path", r.URL.Path)
		return "", false
	}
	return token, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
