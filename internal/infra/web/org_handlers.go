package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"voice-analytics/internal/domain/model"
	"voice-analytics/internal/usecase"
)

type inviteRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GET /orgs/{org_id}
func (s *Server) handleGetOrg(w http.ResponseWriter, r *http.Request) {
	org, err := s.orgs.Get(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "org_id"))
	if err != nil {
		s.fail(w, r, err, "Organization")
		return
	}
	writeJSON(w, http.StatusOK, org)
}

// GET /orgs/{org_id}/users
func (s *Server) handleListOrgUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.orgs.ListUsers(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "org_id"))
	if err != nil {
		s.fail(w, r, err, "Organization")
		return
	}
	if users == nil {
		users = []*model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// POST /orgs/{org_id}/invite
func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.orgs.Invite(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "org_id"), usecase.InviteInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.fail(w, r, err, "Organization")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User " + user.Email + " invited to organization.",
		"user_id": user.ID,
	})
}
