package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/zoa-eus/osoak/internal/auth"
	"github.com/zoa-eus/osoak/internal/progress"
)

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

type authResponse struct {
	Token        string                 `json:"token"`
	ExpiresAt    string                 `json:"expires_at"`
	User         *progress.Record       `json:"user"`
	Achievements []progress.Achievement `json:"achievements,omitempty"`
}

func newAuthResponse(sess auth.Session, rec *progress.Record) authResponse {
	return authResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
		User:      rec,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, sess, err := s.auth.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, progress.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, newAuthResponse(sess, rec))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, sess, unlocked, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	resp := newAuthResponse(sess, rec)
	resp.Achievements = unlocked
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	rec, sess, err := s.auth.Guest(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "guest login failed")
		return
	}
	writeJSON(w, http.StatusOK, newAuthResponse(sess, rec))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if sess.Guest {
		writeError(w, http.StatusForbidden, "guests have no profile")
		return
	}

	var req struct {
		DisplayName string `json:"display_name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		writeError(w, http.StatusBadRequest, "display_name is required")
		return
	}

	rec, err := s.ledger.SetDisplayName(r.Context(), sess.UserID, name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
