// Package contextkeys provides centralized context key definitions
//
// All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage
// discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// IdentityKey contains *auth.Identity
	// Set by: middleware.Auth (pkg/middleware/auth.go)
	// Required by: rate limit, feature gate, credit gate, all protected handlers
	IdentityKey Key = "identity"

	// CreditBalanceKey contains the post-debit credit balance (int)
	// Set by: middleware.CreditGate after a successful debit
	// Used by: handlers that echo the remaining balance in responses
	CreditBalanceKey Key = "credit_balance"

	// CreditCostKey contains the amount debited for this request (int)
	// Set by: middleware.CreditGate after a successful debit
	// Used by: handlers that refund the debit when they reject the request
	CreditCostKey Key = "credit_cost"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: api request middleware
	// Used by: logger, revenue events
	RequestIDKey Key = "request_id"
)

// WithIdentity adds the verified identity to the context
func WithIdentity(ctx context.Context, identity interface{}) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// WithCreditBalance records the post-debit balance in the context
func WithCreditBalance(ctx context.Context, balance int) context.Context {
	return context.WithValue(ctx, CreditBalanceKey, balance)
}

// CreditBalance retrieves the post-debit balance, with ok reporting
// whether a credit gate ran on this request.
func CreditBalance(ctx context.Context) (int, bool) {
	balance, ok := ctx.Value(CreditBalanceKey).(int)
	return balance, ok
}

// WithCreditCost records the debited amount in the context
func WithCreditCost(ctx context.Context, cost int) context.Context {
	return context.WithValue(ctx, CreditCostKey, cost)
}

// CreditCost retrieves the debited amount, with ok reporting whether a
// credit gate debited this request.
func CreditCost(ctx context.Context) (int, bool) {
	cost, ok := ctx.Value(CreditCostKey).(int)
	return cost, ok
}

// WithRequestID adds the request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
