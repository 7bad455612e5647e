package api

import (
	"net/http"

	"github.com/complyscan/complyscan/pkg/contextkeys"
	"github.com/complyscan/complyscan/pkg/fixes"
	"github.com/complyscan/complyscan/pkg/httputil"
	"github.com/complyscan/complyscan/pkg/middleware"
	"github.com/complyscan/complyscan/pkg/revenue"
)

type fixRequest struct {
	// Cost is read by the credit gate before the handler runs; it is
	// declared here so unknown-field checks accept it.
	Cost   *int          `json:"cost,omitempty"`
	Issues []fixes.Issue `json:"issues"`
}

type fixResponse struct {
	Fixes            []fixes.Fix `json:"fixes"`
	CreditsRemaining *int        `json:"credits_remaining,omitempty"`
}

func (s *Server) generateFixes(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	if identity == nil {
		httputil.WriteDenial(w, http.StatusUnauthorized, httputil.CodeAuthRequired, "authentication required", "", nil)
		return
	}
	if s.fixes == nil {
		httputil.WriteServiceUnavailable(w, "fix generation is not configured")
		return
	}

	var req fixRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		s.refundDebit(r, identity.Subject)
		return
	}
	if len(req.Issues) == 0 {
		s.refundDebit(r, identity.Subject)
		httputil.WriteBadRequest(w, "at least one issue is required")
		return
	}

	generated, err := s.fixes.Generate(r.Context(), req.Issues)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("fix generation failed")
		}
		httputil.WriteInternalError(w)
		return
	}

	if s.recorder != nil {
		s.recorder.Record(revenue.EventFixGenerated, *identity, map[string]interface{}{
			"issues": len(req.Issues),
			"fixes":  len(generated),
		})
	}

	resp := fixResponse{Fixes: generated}
	if balance, ok := contextkeys.CreditBalance(r.Context()); ok {
		resp.CreditsRemaining = &balance
	}
	httputil.WriteSuccess(w, resp)
}

// refundDebit returns the credit gate's debit when the handler rejects
// the request after the gate already charged for it.
func (s *Server) refundDebit(r *http.Request, subject string) {
	cost, ok := contextkeys.CreditCost(r.Context())
	if !ok || s.credits == nil {
		return
	}
	if _, err := s.credits.Grant(r.Context(), subject, cost); err != nil && s.logger != nil {
		s.logger.WithError(err).Error("credit refund failed")
	}
}
