package web

import (
	"net/http"

	"voice-analytics/internal/infra/logging"
	"voice-analytics/internal/usecase"
)

type signupRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	OrganizationName string `json:"organization_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// POST /auth/signup
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.auth.Signup(r.Context(), usecase.SignupInput{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		OrganizationName: req.OrganizationName,
	})
	if err != nil {
		s.fail(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Signup successful", "user_id": user.ID})
}

// POST /auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err, "User")
		return
	}
	token, err := s.tokens.Mint(user.ID, user.Email)
	if err != nil {
		s.fail(w, r, err, "User")
		return
	}
	logging.With(logging.WithUserID(r.Context(), user.ID), s.log).Info().Msg("user logged in")
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// GET /auth/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, err := s.auth.Me(r.Context(), callerFrom(r.Context()).UserID)
	if err != nil {
		s.fail(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": profile.User, "organization": profile.Organization})
}
