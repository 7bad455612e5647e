package billing

import (
	"context"
	"fmt"

	"github.com/complyscan/complyscan/pkg/auth"
	"github.com/complyscan/complyscan/pkg/credits"
	"github.com/complyscan/complyscan/pkg/observability"
	"github.com/complyscan/complyscan/pkg/plan"
	"github.com/complyscan/complyscan/pkg/revenue"
)

// Service orchestrates the payment provider, the credit store, and
// revenue events.
type Service struct {
	provider Provider
	credits  credits.Store
	recorder *revenue.Recorder
	logger   *observability.Logger
}

// NewService creates a billing service. recorder and logger may be nil.
func NewService(provider Provider, creditStore credits.Store, recorder *revenue.Recorder, logger *observability.Logger) *Service {
	return &Service{
		provider: provider,
		credits:  creditStore,
		recorder: recorder,
		logger:   logger,
	}
}

// Subscribe creates a subscription for the identity's account.
func (s *Service) Subscribe(ctx context.Context, identity auth.Identity, tier plan.Tier) (*Subscription, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("unknown tier %q", tier)
	}

	customerID, err := s.provider.EnsureCustomer(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("ensure customer: %w", err)
	}

	sub, err := s.provider.CreateSubscription(ctx, customerID, tier)
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	if s.recorder != nil {
		s.recorder.Record(revenue.EventSubscriptionCreated, identity, map[string]interface{}{
			"tier":         string(tier),
			"subscription": sub.ProviderID,
		})
	}
	return sub, nil
}

// PurchaseCredits creates a payment intent for one of the fixed credit
// packages. Credits are granted by the webhook once payment settles, not
// here.
func (s *Service) PurchaseCredits(ctx context.Context, identity auth.Identity, creditCount int) (*Payment, error) {
	pkg, ok := plan.PackageForCredits(creditCount)
	if !ok {
		return nil, fmt.Errorf("no credit package with %d credits", creditCount)
	}

	customerID, err := s.provider.EnsureCustomer(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("ensure customer: %w", err)
	}

	payment, err := s.provider.CreateCreditPayment(ctx, customerID, identity.Subject, pkg)
	if err != nil {
		return nil, fmt.Errorf("create credit payment: %w", err)
	}
	return payment, nil
}

// Charges lists the identity's settled charges.
func (s *Service) Charges(ctx context.Context, identity auth.Identity) ([]Charge, error) {
	customerID, err := s.provider.EnsureCustomer(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("ensure customer: %w", err)
	}
	return s.provider.ListCharges(ctx, customerID)
}

// Subscriptions lists the identity's subscriptions.
func (s *Service) Subscriptions(ctx context.Context, identity auth.Identity) ([]Subscription, error) {
	customerID, err := s.provider.EnsureCustomer(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("ensure customer: %w", err)
	}
	return s.provider.ListSubscriptions(ctx, customerID)
}

// HandleWebhook verifies and applies a provider webhook. Unknown event
// types are acknowledged and ignored; the provider retries on error, so
// only verification and store failures return one.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.provider.VerifyWebhook(payload, sigHeader)
	if err != nil {
		return fmt.Errorf("verify webhook: %w", err)
	}

	switch event.Type {
	case "payment_intent.succeeded":
		return s.applyCreditPurchase(ctx, event)
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		// Tier changes take effect when the next token is issued; the
		// event is recorded for the revenue stream only.
		if s.recorder != nil && event.Subject != "" {
			s.recorder.Record(revenue.EventSubscriptionCreated, auth.Identity{Subject: event.Subject}, map[string]interface{}{
				"webhook_type": event.Type,
			})
		}
		return nil
	default:
		return nil
	}
}

func (s *Service) applyCreditPurchase(ctx context.Context, event WebhookEvent) error {
	if event.Subject == "" || event.Credits <= 0 {
		// A payment unrelated to credit packages; nothing to grant.
		return nil
	}

	balance, err := s.credits.Grant(ctx, event.Subject, event.Credits)
	if err != nil {
		return fmt.Errorf("grant credits: %w", err)
	}

	if s.logger != nil {
		s.logger.WithFields(map[string]interface{}{
			"subject": event.Subject,
			"credits": event.Credits,
			"balance": balance,
		}).Info("credit purchase applied")
	}
	if s.recorder != nil {
		s.recorder.Record(revenue.EventCreditsPurchased, auth.Identity{Subject: event.Subject}, map[string]interface{}{
			"credits": event.Credits,
			"balance": balance,
		})
	}
	return nil
}
