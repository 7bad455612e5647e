package billing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"github.com/stripe/stripe-go/v72/webhook"

	"github.com/complyscan/complyscan/pkg/auth"
	"github.com/complyscan/complyscan/pkg/plan"
)

// metadataSubjectKey carries the application identity on Stripe objects.
const metadataSubjectKey = "complyscan_subject"

// metadataCreditsKey carries the credit count on credit payment intents.
const metadataCreditsKey = "complyscan_credits"

// StripeConfig configures the Stripe adapter.
type StripeConfig struct {
	APIKey        string
	WebhookSecret string

	// TierPrices maps plan tiers to Stripe price IDs.
	TierPrices map[plan.Tier]string
}

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	api    *client.API
	config StripeConfig
}

// NewStripeProvider creates a Stripe-backed payment provider.
func NewStripeProvider(config StripeConfig) (*StripeProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("stripe API key is required")
	}

	api := &client.API{}
	api.Init(config.APIKey, nil)

	return &StripeProvider{
		api:    api,
		config: config,
	}, nil
}

// EnsureCustomer implements Provider. Lookup is by email then filtered on
// the subject metadata, because emails are claims, not keys: two accounts
// may share an email across company workspaces.
func (p *StripeProvider) EnsureCustomer(ctx context.Context, identity auth.Identity) (string, error) {
	listParams := &stripe.CustomerListParams{
		Email: stripe.String(identity.Email),
	}
	listParams.Context = ctx

	it := p.api.Customers.List(listParams)
	for it.Next() {
		c := it.Customer()
		if c.Metadata[metadataSubjectKey] == identity.Subject {
			return c.ID, nil
		}
	}
	if err := it.Err(); err != nil {
		return "", fmt.Errorf("stripe customer lookup: %w", err)
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(identity.Email),
		Name:  stripe.String(identity.Company),
	}
	params.Context = ctx
	params.AddMetadata(metadataSubjectKey, identity.Subject)

	c, err := p.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe customer create: %w", err)
	}
	return c.ID, nil
}

// CreateSubscription implements Provider.
func (p *StripeProvider) CreateSubscription(ctx context.Context, customerID string, tier plan.Tier) (*Subscription, error) {
	priceID, ok := p.config.TierPrices[tier]
	if !ok {
		return nil, fmt.Errorf("no price configured for tier %q", tier)
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
	}
	params.Context = ctx

	sub, err := p.api.Subscriptions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe subscription create: %w", err)
	}
	return fromStripeSubscription(sub, tier), nil
}

// CreateCreditPayment implements Provider.
func (p *StripeProvider) CreateCreditPayment(ctx context.Context, customerID string, subject string, pkg plan.CreditPackage) (*Payment, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(pkg.PriceCents),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	params.AddMetadata(metadataSubjectKey, subject)
	params.AddMetadata(metadataCreditsKey, fmt.Sprintf("%d", pkg.Credits))

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe payment intent create: %w", err)
	}

	return &Payment{
		ProviderID:   intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  intent.Amount,
		Status:       string(intent.Status),
	}, nil
}

// ListCharges implements Provider.
func (p *StripeProvider) ListCharges(ctx context.Context, customerID string) ([]Charge, error) {
	params := &stripe.ChargeListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx

	var charges []Charge
	it := p.api.Charges.List(params)
	for it.Next() {
		c := it.Charge()
		charges = append(charges, Charge{
			ProviderID:  c.ID,
			AmountCents: c.Amount,
			Currency:    string(c.Currency),
			Paid:        c.Paid,
			CreatedAt:   time.Unix(c.Created, 0),
		})
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("stripe charge list: %w", err)
	}
	return charges, nil
}

// ListSubscriptions implements Provider.
func (p *StripeProvider) ListSubscriptions(ctx context.Context, customerID string) ([]Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: customerID,
	}
	params.Context = ctx

	var subs []Subscription
	it := p.api.Subscriptions.List(params)
	for it.Next() {
		s := it.Subscription()
		subs = append(subs, *fromStripeSubscription(s, p.tierForSubscription(s)))
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("stripe subscription list: %w", err)
	}
	return subs, nil
}

// tierForSubscription reverse-maps a subscription's price to a tier.
func (p *StripeProvider) tierForSubscription(s *stripe.Subscription) plan.Tier {
	if s.Items == nil {
		return plan.TierDeveloper
	}
	for _, item := range s.Items.Data {
		if item.Price == nil {
			continue
		}
		for tier, priceID := range p.config.TierPrices {
			if item.Price.ID == priceID {
				return tier
			}
		}
	}
	return plan.TierDeveloper
}

// VerifyWebhook implements Provider.
func (p *StripeProvider) VerifyWebhook(payload []byte, sigHeader string) (WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, p.config.WebhookSecret)
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("webhook verification: %w", err)
	}
	return reduceStripeEvent(event), nil
}

// reduceStripeEvent extracts the fields this system acts on.
func reduceStripeEvent(event stripe.Event) WebhookEvent {
	reduced := WebhookEvent{
		ProviderID: event.ID,
		Type:       event.Type,
	}

	// Stripe test events and malformed replays can arrive without a data
	// payload or with junk metadata; reduce them to an event with no
	// subject rather than crashing the webhook handler.
	if event.Data == nil {
		return reduced
	}

	metadata, _ := event.Data.Object["metadata"].(map[string]interface{})
	if metadata != nil {
		if subject, ok := metadata[metadataSubjectKey].(string); ok {
			reduced.Subject = subject
		}
		if creditsStr, ok := metadata[metadataCreditsKey].(string); ok {
			if n, err := strconv.Atoi(creditsStr); err == nil {
				reduced.Credits = n
			}
		}
	}

	return reduced
}

func fromStripeSubscription(s *stripe.Subscription, tier plan.Tier) *Subscription {
	sub := &Subscription{
		ProviderID: s.ID,
		Tier:       tier,
		Status:     SubscriptionStatus(s.Status),
	}
	if s.CurrentPeriodEnd > 0 {
		end := time.Unix(s.CurrentPeriodEnd, 0)
		sub.CurrentPeriodEnd = &end
	}
	return sub
}
