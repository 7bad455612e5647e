package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/complyscan/complyscan/pkg/auth"
	"github.com/complyscan/complyscan/pkg/billing"
	"github.com/complyscan/complyscan/pkg/credits"
	"github.com/complyscan/complyscan/pkg/fixes"
	"github.com/complyscan/complyscan/pkg/middleware"
	"github.com/complyscan/complyscan/pkg/observability"
	"github.com/complyscan/complyscan/pkg/plan"
	"github.com/complyscan/complyscan/pkg/revenue"
)

// BillingService is the billing surface the handlers need. Implemented
// by billing.Service.
type BillingService interface {
	Subscribe(ctx context.Context, identity auth.Identity, tier plan.Tier) (*billing.Subscription, error)
	PurchaseCredits(ctx context.Context, identity auth.Identity, creditCount int) (*billing.Payment, error)
	Charges(ctx context.Context, identity auth.Identity) ([]billing.Charge, error)
	Subscriptions(ctx context.Context, identity auth.Identity) ([]billing.Subscription, error)
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
}

// Options carries the server's collaborators. Billing, Fixes, Recorder,
// Metrics, and Logger may be nil; affected routes answer 503 or skip
// the optional behavior.
type Options struct {
	Issuer     *auth.Issuer
	Limiter    middleware.Limiter
	CreditGate *middleware.CreditGateMiddleware
	Credits    credits.Store
	Billing    BillingService
	Fixes      fixes.Generator
	Recorder   *revenue.Recorder
	Metrics    *observability.Metrics
	Logger     *observability.Logger

	// DevTokenIssuance enables POST /v1/auth/token. Development only.
	DevTokenIssuance bool
}

// Server is the API HTTP server.
type Server struct {
	router   *mux.Router
	issuer   *auth.Issuer
	credits  credits.Store
	billing  BillingService
	fixes    fixes.Generator
	recorder *revenue.Recorder
	metrics  *observability.Metrics
	logger   *observability.Logger
	scans    *scanStore

	devTokenIssuance bool
}

// NewServer creates the API server and mounts all routes.
func NewServer(opts Options) *Server {
	s := &Server{
		router:           mux.NewRouter(),
		issuer:           opts.Issuer,
		credits:          opts.Credits,
		billing:          opts.Billing,
		fixes:            opts.Fixes,
		recorder:         opts.Recorder,
		metrics:          opts.Metrics,
		logger:           opts.Logger,
		scans:            newScanStore(),
		devTokenIssuance: opts.DevTokenIssuance,
	}

	authMW := middleware.NewAuthMiddleware(opts.Issuer, opts.Metrics)
	rateMW := middleware.NewRateLimitMiddleware(opts.Limiter, opts.Metrics, opts.Logger)
	featureGate := middleware.NewFeatureGate(opts.Metrics, opts.Recorder)

	s.setupRoutes(authMW, rateMW, featureGate, opts.CreditGate)
	return s
}

func (s *Server) setupRoutes(authMW *middleware.AuthMiddleware, rateMW *middleware.RateLimitMiddleware, featureGate *middleware.FeatureGate, creditGate *middleware.CreditGateMiddleware) {
	s.router.Use(RequestIDMiddleware)
	if s.metrics != nil {
		s.router.Use(MetricsMiddleware(s.metrics))
	}

	// Unauthenticated routes.
	s.router.HandleFunc("/v1/auth/token", s.issueToken).Methods("POST")
	s.router.HandleFunc("/v1/billing/webhook", s.billingWebhook).Methods("POST")

	// Everything else sits behind the gate pipeline.
	protected := s.router.PathPrefix("/v1").Subrouter()
	protected.Use(authMW.Handler, rateMW.Handler)

	scans := protected.PathPrefix("/scans").Subrouter()
	scans.Use(featureGate.Require(plan.FeatureURLScan))
	scans.HandleFunc("", s.createScan).Methods("POST")
	scans.HandleFunc("/{id}", s.getScan).Methods("GET")

	reports := protected.PathPrefix("/reports").Subrouter()
	reports.Use(featureGate.Require(plan.FeatureBasicReports))
	reports.HandleFunc("", s.listReports).Methods("GET")

	fixRoutes := protected.PathPrefix("/fixes").Subrouter()
	fixRoutes.Use(featureGate.Require(plan.FeatureAIFixes))
	if creditGate != nil {
		fixRoutes.Use(creditGate.Handler)
	}
	fixRoutes.HandleFunc("", s.generateFixes).Methods("POST")

	billingRoutes := protected.PathPrefix("/billing").Subrouter()
	billingRoutes.HandleFunc("/subscriptions", s.createSubscription).Methods("POST")
	billingRoutes.HandleFunc("/subscriptions", s.listSubscriptions).Methods("GET")
	billingRoutes.HandleFunc("/credits", s.purchaseCredits).Methods("POST")
	billingRoutes.HandleFunc("/charges", s.listCharges).Methods("GET")
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
