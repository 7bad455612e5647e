package middleware

import (
	"errors"
	"net/http"

	"github.com/complyscan/complyscan/pkg/auth"
	"github.com/complyscan/complyscan/pkg/contextkeys"
	"github.com/complyscan/complyscan/pkg/httputil"
	"github.com/complyscan/complyscan/pkg/observability"
)

// Verifier is the part of auth.Issuer the middleware needs.
type Verifier interface {
	Verify(token string) (auth.Identity, error)
}

// AuthMiddleware verifies bearer tokens and injects the identity into the
// request context.
type AuthMiddleware struct {
	verifier Verifier
	metrics  *observability.Metrics
}

// NewAuthMiddleware creates the authentication gate.
func NewAuthMiddleware(verifier Verifier, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		metrics:  metrics,
	}
}

// Handler wraps an HTTP handler with token verification.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := httputil.BearerToken(r)

		identity, err := m.verifier.Verify(token)
		if err != nil {
			m.deny(w, err)
			return
		}

		ctx := contextkeys.WithIdentity(r.Context(), &identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) deny(w http.ResponseWriter, err error) {
	code := httputil.CodeAuthInvalid
	message := "invalid token"

	switch {
	case errors.Is(err, auth.ErrTokenMissing):
		code = httputil.CodeAuthRequired
		message = "authorization required: pass a bearer token"
	case errors.Is(err, auth.ErrTokenExpired):
		message = "token expired: sign in again"
	}

	if m.metrics != nil {
		m.metrics.GateDenialsTotal.WithLabelValues(code, "").Inc()
	}
	httputil.WriteDenial(w, http.StatusUnauthorized, code, message, "", nil)
}

// GetIdentity extracts the verified identity from the request, or nil
// when the auth gate has not run.
func GetIdentity(r *http.Request) *auth.Identity {
	identity, ok := r.Context().Value(contextkeys.IdentityKey).(*auth.Identity)
	if !ok {
		return nil
	}
	return identity
}

// requireIdentity fetches the identity or terminates the request; a gate
// reached without Auth in front of it is a wiring bug, surfaced as an
// auth denial rather than a skipped check.
func requireIdentity(w http.ResponseWriter, r *http.Request) *auth.Identity {
	identity := GetIdentity(r)
	if identity == nil {
		httputil.WriteDenial(w, http.StatusUnauthorized, httputil.CodeAuthRequired,
			"authorization required", "", nil)
	}
	return identity
}
