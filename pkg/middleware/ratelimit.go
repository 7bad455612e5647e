package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/complyscan/complyscan/pkg/httputil"
	"github.com/complyscan/complyscan/pkg/observability"
	"github.com/complyscan/complyscan/pkg/plan"
)

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter counts requests per caller key within a fixed window. The
// check-and-increment must be atomic per key: two simultaneous requests
// at the ceiling may not both pass.
type Limiter interface {
	Allow(ctx context.Context, key string, budget plan.RateBudget) (Decision, error)
}

// window tracks one caller's count for the current fixed window.
// Windows start at wall-clock boundaries (now truncated to the window
// duration), so boundary ties resolve by window start time.
type window struct {
	mu    sync.Mutex
	start time.Time
	span  time.Duration
	count int
}

// LocalLimiter is an in-process fixed-window limiter for single-instance
// deployments and tests. Use RedisLimiter when limits must be shared.
type LocalLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
}

// NewLocalLimiter creates an empty in-process limiter.
func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{
		windows: make(map[string]*window),
	}
}

// Allow implements Limiter.
func (l *LocalLimiter) Allow(ctx context.Context, key string, budget plan.RateBudget) (Decision, error) {
	l.mu.Lock()
	win, exists := l.windows[key]
	if !exists {
		win = &window{}
		l.windows[key] = win
	}
	l.mu.Unlock()

	win.mu.Lock()
	defer win.mu.Unlock()

	now := time.Now()
	start := now.Truncate(budget.Window)
	if !win.start.Equal(start) {
		win.start = start
		win.count = 0
	}
	win.span = budget.Window

	reset := start.Add(budget.Window)
	if win.count >= budget.MaxRequests {
		return Decision{Allowed: false, Remaining: 0, Reset: reset}, nil
	}

	win.count++
	return Decision{
		Allowed:   true,
		Remaining: budget.MaxRequests - win.count,
		Reset:     reset,
	}, nil
}

// Cleanup removes windows that ended more than one window ago.
func (l *LocalLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, win := range l.windows {
		win.mu.Lock()
		// Staleness is judged against the key's own window duration.
		stale := now.Sub(win.start) > 2*win.span
		win.mu.Unlock()
		if stale {
			delete(l.windows, key)
		}
	}
}

// RateLimitMiddleware enforces the per-tier request budget.
type RateLimitMiddleware struct {
	limiter Limiter
	metrics *observability.Metrics
	logger  *observability.Logger

	// failOpen controls behavior on limiter backend errors. Denying all
	// traffic because redis blipped is worse than briefly over-admitting.
	failOpen bool
}

// NewRateLimitMiddleware creates the rate limiting gate.
func NewRateLimitMiddleware(limiter Limiter, metrics *observability.Metrics, logger *observability.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter:  limiter,
		metrics:  metrics,
		logger:   logger,
		failOpen: true,
	}
}

// SetFailOpen controls whether backend errors admit (true) or reject
// (false) the request.
func (m *RateLimitMiddleware) SetFailOpen(failOpen bool) {
	m.failOpen = failOpen
}

// Handler wraps an HTTP handler with tier rate limiting. Requires the
// auth gate to have run.
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := requireIdentity(w, r)
		if identity == nil {
			return
		}

		budget := plan.BudgetFor(identity.Tier)
		decision, err := m.limiter.Allow(r.Context(), identity.RateLimitKey(), budget)
		if err != nil {
			if m.logger != nil {
				m.logger.WithError(err).Warn("rate limiter backend error")
			}
			if m.failOpen {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteServiceUnavailable(w, "rate limiting unavailable")
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", budget.MaxRequests))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", decision.Reset.Unix()))

		if !decision.Allowed {
			m.rateLimited(w, identity.Tier, decision)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) rateLimited(w http.ResponseWriter, tier plan.Tier, decision Decision) {
	if m.metrics != nil {
		m.metrics.RateLimitRejectedTotal.WithLabelValues(string(tier)).Inc()
		m.metrics.GateDenialsTotal.WithLabelValues(httputil.CodeRateLimited, string(tier)).Inc()
	}

	retryAfter := int(time.Until(decision.Reset).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))

	httputil.WriteDenial(w, http.StatusTooManyRequests, httputil.CodeRateLimited,
		fmt.Sprintf("rate limit exceeded for the %s tier", tier),
		plan.UpgradeHint(tier),
		map[string]interface{}{
			"tier":        string(tier),
			"retry_after": retryAfter,
		})
}
