package auth

import "github.com/complyscan/complyscan/pkg/plan"

// Identity holds the claims reconstructed from a verified token.
//
// Subject is the application identity (a stable opaque string, normally a
// UUID assigned at signup). It is distinct from any external provider
// handle; the billing layer owns that mapping. Email is a claims field,
// never a key.
type Identity struct {
	Subject string    `json:"sub"`
	Email   string    `json:"email"`
	Company string    `json:"company,omitempty"`
	Tier    plan.Tier `json:"tier"`
	Credits int       `json:"credits"`
}

// RateLimitKey returns the caller key used by the tier rate limiter.
// Including the tier means a mid-window upgrade starts a fresh budget
// instead of inheriting the old tier's count.
func (id Identity) RateLimitKey() string {
	return id.Subject + ":" + string(id.Tier)
}
