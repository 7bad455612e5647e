package api

import (
	"io"
	"net/http"

	"github.com/complyscan/complyscan/pkg/httputil"
	"github.com/complyscan/complyscan/pkg/middleware"
	"github.com/complyscan/complyscan/pkg/plan"
)

const maxWebhookBytes = 256 * 1024

type subscribeRequest struct {
	Tier string `json:"tier"`
}

func (s *Server) createSubscription(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	if identity == nil {
		httputil.WriteDenial(w, http.StatusUnauthorized, httputil.CodeAuthRequired, "authentication required", "", nil)
		return
	}
	if s.billing == nil {
		httputil.WriteServiceUnavailable(w, "billing is not configured")
		return
	}

	var req subscribeRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	tier := plan.Tier(req.Tier)
	if !tier.Valid() || tier == plan.TierDeveloper {
		httputil.WriteBadRequest(w, "tier must be compliance or enterprise")
		return
	}

	sub, err := s.billing.Subscribe(r.Context(), *identity, tier)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("subscription creation failed")
		}
		httputil.WriteServiceUnavailable(w, "subscription could not be created")
		return
	}
	httputil.WriteCreated(w, sub)
}

func (s *Server) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	if identity == nil {
		httputil.WriteDenial(w, http.StatusUnauthorized, httputil.CodeAuthRequired, "authentication required", "", nil)
		return
	}
	if s.billing == nil {
		httputil.WriteServiceUnavailable(w, "billing is not configured")
		return
	}

	subs, err := s.billing.Subscriptions(r.Context(), *identity)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("subscription listing failed")
		}
		httputil.WriteServiceUnavailable(w, "subscriptions are unavailable")
		return
	}
	httputil.WriteSuccess(w, subs)
}

type purchaseCreditsRequest struct {
	Credits int `json:"credits"`
}

func (s *Server) purchaseCredits(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	if identity == nil {
		httputil.WriteDenial(w, http.StatusUnauthorized, httputil.CodeAuthRequired, "authentication required", "", nil)
		return
	}
	if s.billing == nil {
		httputil.WriteServiceUnavailable(w, "billing is not configured")
		return
	}

	var req purchaseCreditsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if _, ok := plan.PackageForCredits(req.Credits); !ok {
		httputil.WriteDenial(w, http.StatusBadRequest, httputil.CodeInsufficientCredits,
			"credits must match one of the fixed packages", "", map[string]interface{}{
				"packages": plan.CreditPackages(),
			})
		return
	}

	payment, err := s.billing.PurchaseCredits(r.Context(), *identity, req.Credits)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("credit purchase failed")
		}
		httputil.WriteServiceUnavailable(w, "payment could not be created")
		return
	}
	httputil.WriteCreated(w, payment)
}

func (s *Server) listCharges(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	if identity == nil {
		httputil.WriteDenial(w, http.StatusUnauthorized, httputil.CodeAuthRequired, "authentication required", "", nil)
		return
	}
	if s.billing == nil {
		httputil.WriteServiceUnavailable(w, "billing is not configured")
		return
	}

	charges, err := s.billing.Charges(r.Context(), *identity)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("charge listing failed")
		}
		httputil.WriteServiceUnavailable(w, "charges are unavailable")
		return
	}
	httputil.WriteSuccess(w, charges)
}

// billingWebhook receives provider events. It is authenticated by the
// webhook signature, not a bearer token.
func (s *Server) billingWebhook(w http.ResponseWriter, r *http.Request) {
	if s.billing == nil {
		httputil.WriteServiceUnavailable(w, "billing is not configured")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		httputil.WriteBadRequest(w, "could not read payload")
		return
	}

	if err := s.billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Warn("webhook rejected")
		}
		httputil.WriteBadRequest(w, "webhook rejected")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
