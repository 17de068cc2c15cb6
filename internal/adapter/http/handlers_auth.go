// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"net/http"

	"focuslock/internal/app"
	"focuslock/internal/domain"

	"github.com/coreos/go-oidc/v3/oidc"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authStatus maps an auth service error to its status code.
func authStatus(err error) int {
	switch {
	case errors.Is(err, app.ErrMissingFields):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrEmailNotRegistered):
		return http.StatusNotFound
	case errors.Is(err, app.ErrEmailTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeAuthFailure(w http.ResponseWriter, err error) {
	status := authStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("auth: %v", err)
		err = errors.New("internal error")
	}
	writeAuthError(w, status, err)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(s.auth.SessionTTL().Seconds()),
	})
}

func (s *Server) writeLoggedIn(w http.ResponseWriter, r *http.Request, status int, token string, user *domain.User) {
	s.setSessionCookie(w, r, token)
	writeJSON(w, status, map[string]any{"success": true, "user": user, "token": token})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req credentials
	if err := parseJSON(r, &req); err != nil {
		writeAuthError(w, http.StatusBadRequest, err)
		return
	}

	token, user, err := s.auth.Register(r.Context(), req.Email, req.Password, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		s.writeAuthFailure(w, err)
		return
	}
	s.writeLoggedIn(w, r, http.StatusCreated, token, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req credentials
	if err := parseJSON(r, &req); err != nil {
		writeAuthError(w, http.StatusBadRequest, err)
		return
	}

	token, user, err := s.auth.Login(r.Context(), req.Email, req.Password, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		s.writeAuthFailure(w, err)
		return
	}
	s.writeLoggedIn(w, r, http.StatusOK, token, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	if token := sessionToken(r); token != "" {
		if err := s.auth.Logout(r.Context(), token); err != nil {
			log.Printf("auth: logout: %v", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeAuthError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.auth.ResetPassword(r.Context(), req.Email); err != nil {
		s.writeAuthFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": currentUser(r)})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sso_enabled": s.oidcConfig.Enabled,
	})
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if !s.oidcConfig.Enabled {
		http.Error(w, "sso disabled", http.StatusNotFound)
		return
	}
	state := generateState()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.oidcConfig.OAuth2Config.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if !s.oidcConfig.Enabled {
		http.Error(w, "sso disabled", http.StatusNotFound)
		return
	}

	state, err := r.Cookie("oauth_state")
	if err != nil || !app.ConstantTimeCompare(r.URL.Query().Get("state"), state.Value) {
		writeAuthError(w, http.StatusBadRequest, errors.New("invalid state"))
		return
	}

	http.SetCookie(w, &http.Cookie{Name: "oauth_state", MaxAge: -1, Path: "/"})

	token, err := s.oidcConfig.OAuth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		writeAuthError(w, http.StatusBadGateway, errors.New("failed to exchange token"))
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		writeAuthError(w, http.StatusBadGateway, errors.New("no id_token"))
		return
	}

	idToken, err := s.oidcConfig.Provider.Verifier(&oidc.Config{ClientID: s.oidcConfig.OAuth2Config.ClientID}).Verify(r.Context(), rawIDToken)
	if err != nil {
		writeAuthError(w, http.StatusUnauthorized, errors.New("failed to verify token"))
		return
	}

	var claims struct {
		Email string `json:"email"`
		Sub   string `json:"sub"`
	}
	if err = idToken.Claims(&claims); err != nil {
		writeAuthError(w, http.StatusBadGateway, errors.New("failed to parse claims"))
		return
	}

	email := claims.Email
	if email == "" {
		email = claims.Sub
	}

	loginToken, err := s.auth.LoginWithUser(r.Context(), email, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		s.writeAuthFailure(w, err)
		return
	}

	if s.oidcConfig.PostLoginRedirect != "" {
		s.setSessionCookie(w, r, loginToken)
		http.Redirect(w, r, s.oidcConfig.PostLoginRedirect, http.StatusFound)
		return
	}
	user, err := s.auth.ValidateSession(r.Context(), loginToken, r.UserAgent())
	if err != nil {
		s.writeAuthFailure(w, err)
		return
	}
	s.writeLoggedIn(w, r, http.StatusOK, loginToken, user)
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
