package billing

import (
	"context"
	"time"

	"github.com/complyscan/complyscan/pkg/auth"
	"github.com/complyscan/complyscan/pkg/plan"
)

// SubscriptionStatus mirrors the provider's subscription lifecycle.
type SubscriptionStatus string

const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusTrialing   SubscriptionStatus = "trialing"
)

// Subscription is the local view of a provider subscription.
type Subscription struct {
	ProviderID       string             `json:"provider_id"`
	Tier             plan.Tier          `json:"tier"`
	Status           SubscriptionStatus `json:"status"`
	CurrentPeriodEnd *time.Time         `json:"current_period_end,omitempty"`
}

// Payment is the local view of a provider payment intent.
type Payment struct {
	ProviderID   string `json:"provider_id"`
	ClientSecret string `json:"client_secret,omitempty"`
	AmountCents  int64  `json:"amount_cents"`
	Status       string `json:"status"`
}

// Charge is the local view of a settled provider charge.
type Charge struct {
	ProviderID  string    `json:"provider_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Paid        bool      `json:"paid"`
	CreatedAt   time.Time `json:"created_at"`
}

// WebhookEvent is a signature-verified provider event, reduced to the
// fields this system acts on.
type WebhookEvent struct {
	ProviderID string `json:"provider_id"`
	Type       string `json:"type"`

	// Subject is the application identity from the event metadata,
	// empty when the event carries none.
	Subject string `json:"subject,omitempty"`

	// Credits is the purchased credit count for credit payments.
	Credits int `json:"credits,omitempty"`
}

// Provider is the outbound payment-provider port.
type Provider interface {
	// EnsureCustomer returns the provider customer handle for an
	// application identity, creating the customer on first use.
	EnsureCustomer(ctx context.Context, identity auth.Identity) (string, error)

	// CreateSubscription starts a subscription for a plan tier.
	CreateSubscription(ctx context.Context, customerID string, tier plan.Tier) (*Subscription, error)

	// CreateCreditPayment creates a payment intent for a credit package.
	CreateCreditPayment(ctx context.Context, customerID string, subject string, pkg plan.CreditPackage) (*Payment, error)

	// ListCharges returns the customer's charges, newest first.
	ListCharges(ctx context.Context, customerID string) ([]Charge, error)

	// ListSubscriptions returns the customer's subscriptions.
	ListSubscriptions(ctx context.Context, customerID string) ([]Subscription, error)

	// VerifyWebhook authenticates a webhook payload against its
	// signature header and reduces it to a WebhookEvent.
	VerifyWebhook(payload []byte, sigHeader string) (WebhookEvent, error)
}
