package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/complyscan/complyscan/pkg/contextkeys"
	"github.com/complyscan/complyscan/pkg/credits"
	"github.com/complyscan/complyscan/pkg/httputil"
	"github.com/complyscan/complyscan/pkg/observability"
	"github.com/complyscan/complyscan/pkg/plan"
)

// CreditGateMiddleware debits the caller's credit balance before the
// handler runs. The balance lives in the credit store, not in the token:
// the store's Debit is atomic, so concurrent requests for the same caller
// cannot both spend the last credit.
//
// Unlike the rate limiter this gate fails closed on store errors; the
// alternative is giving fixes away whenever redis blips.
type CreditGateMiddleware struct {
	store   credits.Store
	metrics *observability.Metrics
	logger  *observability.Logger
}

// NewCreditGateMiddleware creates the credit gate.
func NewCreditGateMiddleware(store credits.Store, metrics *observability.Metrics, logger *observability.Logger) *CreditGateMiddleware {
	return &CreditGateMiddleware{
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// costEnvelope is the only body field this gate reads.
type costEnvelope struct {
	Cost *int `json:"cost"`
}

// Handler wraps an HTTP handler with a credit debit. The cost comes from
// the request body's numeric cost field, defaulting to 1 when absent.
// Requires the auth gate to have run.
func (m *CreditGateMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := requireIdentity(w, r)
		if identity == nil {
			return
		}

		cost, ok := m.readCost(w, r)
		if !ok {
			return
		}

		remaining, err := m.store.Debit(r.Context(), identity.Subject, cost)
		if err != nil {
			var ie *credits.InsufficientError
			if errors.As(err, &ie) {
				m.insufficient(w, identity.Tier, ie)
				return
			}
			if m.metrics != nil {
				m.metrics.CreditDebitFailures.Inc()
			}
			if m.logger != nil {
				m.logger.WithError(err).Error("credit store debit failed")
			}
			httputil.WriteServiceUnavailable(w, "credit accounting unavailable, try again")
			return
		}

		if m.metrics != nil {
			m.metrics.CreditsDebitedTotal.WithLabelValues(string(identity.Tier)).Add(float64(cost))
		}
		w.Header().Set("X-Credits-Remaining", fmt.Sprintf("%d", remaining))

		ctx := contextkeys.WithCreditBalance(r.Context(), remaining)
		ctx = contextkeys.WithCreditCost(ctx, cost)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// readCost peeks the cost field off the body without consuming it.
func (m *CreditGateMiddleware) readCost(w http.ResponseWriter, r *http.Request) (int, bool) {
	body, err := httputil.PeekBody(r)
	if err != nil {
		httputil.WriteBadRequest(w, "unreadable request body")
		return 0, false
	}

	if len(body) == 0 {
		return 1, true
	}

	var envelope costEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		httputil.WriteBadRequest(w, "request body must be JSON")
		return 0, false
	}
	if envelope.Cost == nil {
		return 1, true
	}
	if *envelope.Cost < 1 {
		httputil.WriteBadRequest(w, "cost must be a positive integer")
		return 0, false
	}
	return *envelope.Cost, true
}

func (m *CreditGateMiddleware) insufficient(w http.ResponseWriter, tier plan.Tier, ie *credits.InsufficientError) {
	if m.metrics != nil {
		m.metrics.GateDenialsTotal.WithLabelValues(httputil.CodeInsufficientCredits, string(tier)).Inc()
	}

	httputil.WriteDenial(w, http.StatusPaymentRequired, httputil.CodeInsufficientCredits,
		fmt.Sprintf("insufficient credits: this request costs %d, you have %d", ie.Required, ie.Remaining),
		"Purchase credits at https://complyscan.io/billing/credits",
		map[string]interface{}{
			"required":  ie.Required,
			"remaining": ie.Remaining,
			"packages":  plan.CreditPackages(),
		})
}
