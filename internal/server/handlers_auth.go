package server

import (
	"net/http"

	"github.com/bobmcallan/investflow/internal/interfaces"
)

// handleAuthRegister handles POST /api/auth/register.
func (s *Server) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req interfaces.RegisterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := s.app.AuthService.Register(r.Context(), req)
	if err != nil {
		WriteAppError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, result)
}

// handleAuthLogin handles POST /api/auth/login.
func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := s.app.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteAppError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// handleAuthLogout handles POST /api/auth/logout. The presented token is
// revoked and the owner's workspace is dropped.
func (s *Server) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	err := s.app.AuthService.Logout(r.Context(), &interfaces.TokenClaims{
		UserID:    sess.UserID,
		Email:     sess.Email,
		Name:      sess.Name,
		TokenID:   sess.TokenID,
		ExpiresAt: sess.ExpiresAt,
	})
	if err != nil {
		WriteAppError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAuthMe handles GET /api/auth/me.
func (s *Server) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	user, err := s.app.AuthService.CurrentUser(r.Context(), sess.UserID)
	if err != nil {
		WriteAppError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
