package middleware

import (
	"fmt"
	"net/http"

	"github.com/complyscan/complyscan/pkg/auth"
	"github.com/complyscan/complyscan/pkg/httputil"
	"github.com/complyscan/complyscan/pkg/observability"
	"github.com/complyscan/complyscan/pkg/plan"
	"github.com/complyscan/complyscan/pkg/revenue"
)

// FeatureGate denies requests whose tier does not include a feature.
type FeatureGate struct {
	metrics  *observability.Metrics
	recorder *revenue.Recorder
}

// NewFeatureGate creates the feature gate. recorder may be nil; when set,
// denials are recorded as revenue events since they are upsell moments.
func NewFeatureGate(metrics *observability.Metrics, recorder *revenue.Recorder) *FeatureGate {
	return &FeatureGate{metrics: metrics, recorder: recorder}
}

// Require creates middleware admitting only tiers whose allow-list
// includes feature. Requires the auth gate to have run.
func (g *FeatureGate) Require(feature plan.Feature) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := requireIdentity(w, r)
			if identity == nil {
				return
			}

			if !plan.Allowed(identity.Tier, feature) {
				g.deny(w, *identity, feature)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (g *FeatureGate) deny(w http.ResponseWriter, identity auth.Identity, feature plan.Feature) {
	tier := identity.Tier
	if g.metrics != nil {
		g.metrics.GateDenialsTotal.WithLabelValues(httputil.CodeFeatureDenied, string(tier)).Inc()
	}
	if g.recorder != nil {
		g.recorder.Record(revenue.EventGateDenied, identity, map[string]interface{}{
			"code":    httputil.CodeFeatureDenied,
			"feature": string(feature),
		})
	}

	httputil.WriteDenial(w, http.StatusForbidden, httputil.CodeFeatureDenied,
		fmt.Sprintf("feature %q is not included in the %s tier", feature, tier),
		plan.UpgradeHint(tier),
		map[string]interface{}{
			"feature":             string(feature),
			"tier":                string(tier),
			"upgrade_price_cents": plan.UpgradePriceCents(feature),
		})
}
