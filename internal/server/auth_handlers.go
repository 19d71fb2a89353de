package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rakhaai/internal/util"
	"rakhaai/pkg/domain"
)

const oauthStateCookie = "oauth_state"

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowAuthAttempt(r, "register") {
		writeError(w, http.StatusTooManyRequests, "too many attempts, try again later")
		return
	}
	var req registerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}
	user, token, err := s.app.Register(req.Name, req.Email, req.Password)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowAuthAttempt(r, "login") {
		writeError(w, http.StatusTooManyRequests, "too many attempts, try again later")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.Login(req.Email, req.Password)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := s.app.Logout(token); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleOAuth covers GET /api/auth/{provider} and its /callback.
func (s *Server) handleOAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/auth/")
	name, tail, _ := strings.Cut(rest, "/")
	provider := s.app.Provider(name)
	if provider == nil {
		http.NotFound(w, r)
		return
	}
	switch tail {
	case "":
		s.oauthRedirect(w, r, provider.AuthCodeURL)
	case "callback":
		s.oauthCallback(w, r, name)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) oauthRedirect(w http.ResponseWriter, r *http.Request, authCodeURL func(string) string) {
	state := util.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, authCodeURL(state), http.StatusFound)
}

func (s *Server) oauthCallback(w http.ResponseWriter, r *http.Request, name string) {
	provider := s.app.Provider(name)
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing oauth code")
		return
	}
	profile, err := provider.Exchange(r.Context(), code)
	if err != nil {
		util.LoggerFromContext(r.Context()).Warn("oauth exchange failed", "provider", name, "error", err)
		writeError(w, http.StatusBadGateway, "oauth exchange failed")
		return
	}
	user, token, err := s.app.ResolveOrCreateUser(domain.Provider(name), profile)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	// Expire the one-shot state cookie.
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/api/auth", MaxAge: -1})

	userJSON, err := json.Marshal(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	redirect := s.frontendURL + "/auth/callback?token=" + url.QueryEscape(token) +
		"&user=" + url.QueryEscape(string(userJSON))
	http.Redirect(w, r, redirect, http.StatusFound)
}
