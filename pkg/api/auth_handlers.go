package api

import (
	"net/http"

	"github.com/complyscan/complyscan/pkg/auth"
	"github.com/complyscan/complyscan/pkg/httputil"
	"github.com/complyscan/complyscan/pkg/plan"
	"github.com/complyscan/complyscan/pkg/revenue"
)

type tokenRequest struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
	Tier    string `json:"tier,omitempty"`
	Credits int    `json:"credits,omitempty"`
}

type tokenResponse struct {
	Token    string        `json:"token"`
	Identity auth.Identity `json:"identity"`
}

// issueToken mints a token for local development and tests. It is
// disabled outside development; production tokens come from the main
// product's session service.
func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	if !s.devTokenIssuance {
		httputil.WriteNotFound(w, "not found")
		return
	}

	var req tokenRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Subject == "" {
		httputil.WriteBadRequest(w, "subject is required")
		return
	}
	if req.Credits < 0 {
		httputil.WriteBadRequest(w, "credits must not be negative")
		return
	}

	identity := auth.Identity{
		Subject: req.Subject,
		Email:   req.Email,
		Company: req.Company,
		Tier:    plan.ParseTier(req.Tier),
		Credits: req.Credits,
	}

	token, err := s.issuer.Issue(identity)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("token issuance failed")
		}
		httputil.WriteInternalError(w)
		return
	}

	// The claims balance is only informational; the credit gate debits
	// the store, so issuance seeds it.
	if s.credits != nil && req.Credits > 0 {
		if err := s.credits.Set(r.Context(), identity.Subject, req.Credits); err != nil {
			if s.logger != nil {
				s.logger.WithError(err).Error("seeding credit balance failed")
			}
			httputil.WriteInternalError(w)
			return
		}
	}

	if s.recorder != nil {
		s.recorder.Record(revenue.EventSignup, identity, map[string]interface{}{
			"tier": string(identity.Tier),
		})
	}
	httputil.WriteCreated(w, tokenResponse{Token: token, Identity: identity})
}
