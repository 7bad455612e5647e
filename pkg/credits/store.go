// Package credits owns the per-identity credit balance as an external
// counter with an atomic decrement-if-sufficient operation.
//
// The balance embedded in a session token is only the seed written when
// the token was issued; every debit goes through a Store so that two
// concurrent requests for the same caller cannot both spend the last
// credit.
package credits

import (
	"context"
	"errors"
	"fmt"
)

// InsufficientError is returned by Debit when the balance cannot cover
// the requested cost. It carries what the upsell response needs.
type InsufficientError struct {
	Required  int
	Remaining int
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient credits: need %d, have %d", e.Required, e.Remaining)
}

// IsInsufficient reports whether err is an InsufficientError.
func IsInsufficient(err error) bool {
	var ie *InsufficientError
	return errors.As(err, &ie)
}

// Store is the durable credit counter keyed by application subject.
type Store interface {
	// Debit atomically decrements the subject's balance by cost if the
	// balance is at least cost, returning the new balance. Returns
	// *InsufficientError without modifying the balance otherwise.
	Debit(ctx context.Context, subject string, cost int) (int, error)

	// Balance returns the current balance. A subject with no entry has
	// balance zero.
	Balance(ctx context.Context, subject string) (int, error)

	// Grant adds credits to the subject's balance and returns the new
	// balance.
	Grant(ctx context.Context, subject string, amount int) (int, error)

	// Set overwrites the subject's balance. Used when seeding a new
	// account and by webhook-driven corrections.
	Set(ctx context.Context, subject string, balance int) error
}
