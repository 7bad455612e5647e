package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthChecker provides liveness and readiness probes. Redis is the only
// hard dependency; the gateway degrades (fails open) without it, so a
// redis outage reports degraded rather than unhealthy.
type HealthChecker struct {
	redis *redis.Client
}

// NewHealthChecker creates a health checker. redis may be nil when the
// gateway runs on in-memory stores.
func NewHealthChecker(redisClient *redis.Client) *HealthChecker {
	return &HealthChecker{redis: redisClient}
}

// Liveness always reports healthy while the process serves requests.
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    StatusHealthy,
		"timestamp": time.Now(),
	})
}

// Readiness checks dependency reachability.
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	status := StatusHealthy
	deps := map[string]string{}

	if h.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.redis.Ping(ctx).Err(); err != nil {
			status = StatusDegraded
			deps["redis"] = err.Error()
		} else {
			deps["redis"] = StatusHealthy
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":       status,
		"timestamp":    time.Now(),
		"dependencies": deps,
	})
}
