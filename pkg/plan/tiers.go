// Package plan defines the closed set of subscription tiers and the
// static tables derived from them: rate budgets, feature allow-lists,
// upgrade pricing, and purchasable credit packages.
//
// Tiers are cumulative by convention (enterprise includes everything
// compliance does, which includes everything developer does), but every
// table below enumerates its rows explicitly so that adding a tier is a
// compile-visible change rather than an inherited one.
package plan

import "time"

// Tier represents a subscription plan tier
type Tier string

const (
	TierDeveloper  Tier = "developer"
	TierCompliance Tier = "compliance"
	TierEnterprise Tier = "enterprise"
)

// ParseTier maps a raw string to a known tier. Unknown values fail closed
// to the developer tier rather than erroring; callers gating access on
// tier must never crash on a claim written by an older release.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierDeveloper, TierCompliance, TierEnterprise:
		return Tier(s)
	default:
		return TierDeveloper
	}
}

// Valid reports whether t is one of the enumerated tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierDeveloper, TierCompliance, TierEnterprise:
		return true
	}
	return false
}

// RateBudget defines the request ceiling for a tier over a fixed window.
type RateBudget struct {
	Window      time.Duration
	MaxRequests int
}

// rateWindow is shared by all tiers; only the ceiling varies.
const rateWindow = 15 * time.Minute

var rateBudgets = map[Tier]RateBudget{
	TierDeveloper:  {Window: rateWindow, MaxRequests: 1000},
	TierCompliance: {Window: rateWindow, MaxRequests: 10000},
	TierEnterprise: {Window: rateWindow, MaxRequests: 100000},
}

// BudgetFor returns the rate budget for a tier. Unrecognized tiers get
// the developer budget.
func BudgetFor(tier Tier) RateBudget {
	if b, ok := rateBudgets[tier]; ok {
		return b
	}
	return rateBudgets[TierDeveloper]
}

// Feature identifies a gated product capability
type Feature string

const (
	FeatureURLScan           Feature = "url_scan"
	FeatureBasicReports      Feature = "basic_reports"
	FeatureVerticalDiscovery Feature = "vertical_discovery"
	FeatureAIFixes           Feature = "ai_fixes"
	FeatureLegalRisk         Feature = "legal_risk"
	FeatureAPIAccess         Feature = "api_access"
	FeatureWhiteLabel        Feature = "white_label"
)

// tierFeatures is the feature allow-list per tier. Each row is spelled
// out in full; do not derive a tier's set from another tier's.
var tierFeatures = map[Tier]map[Feature]bool{
	TierDeveloper: {
		FeatureURLScan:      true,
		FeatureBasicReports: true,
	},
	TierCompliance: {
		FeatureURLScan:           true,
		FeatureVerticalDiscovery: true,
		FeatureAIFixes:           true,
		FeatureLegalRisk:         true,
	},
	TierEnterprise: {
		FeatureURLScan:           true,
		FeatureVerticalDiscovery: true,
		FeatureAIFixes:           true,
		FeatureLegalRisk:         true,
		FeatureAPIAccess:         true,
		FeatureWhiteLabel:        true,
	},
}

// Allowed reports whether a tier may use a feature. Unknown tiers have
// the empty feature set; unknown features are denied for every tier.
func Allowed(tier Tier, feature Feature) bool {
	features, ok := tierFeatures[tier]
	if !ok {
		return false
	}
	return features[feature]
}

// Monthly plan prices in cents, used for upgrade suggestions on feature
// denials.
const (
	CompliancePriceCents = 19900  // $199/month
	EnterprisePriceCents = 149900 // $1,499/month
)

// featureUpgradePrices maps a feature to the cheapest plan that unlocks
// it. Features not listed default to the enterprise price.
var featureUpgradePrices = map[Feature]int64{
	FeatureVerticalDiscovery: CompliancePriceCents,
	FeatureAIFixes:           CompliancePriceCents,
	FeatureLegalRisk:         CompliancePriceCents,
	FeatureAPIAccess:         EnterprisePriceCents,
	FeatureWhiteLabel:        EnterprisePriceCents,
}

// UpgradePriceCents returns the suggested monthly upgrade price for a
// gated feature.
func UpgradePriceCents(feature Feature) int64 {
	if p, ok := featureUpgradePrices[feature]; ok {
		return p
	}
	return EnterprisePriceCents
}

// UpgradeHint returns the guidance surfaced alongside a rate-limit or
// feature denial. Developer-tier callers are pointed at self-serve
// pricing; paid tiers already talk to sales.
func UpgradeHint(tier Tier) string {
	switch tier {
	case TierCompliance, TierEnterprise:
		return "Contact sales@complyscan.io to raise your plan limits"
	default:
		return "Upgrade your plan at https://complyscan.io/pricing"
	}
}

// CreditPackage is a purchasable block of AI-fix credits.
type CreditPackage struct {
	Credits    int   `json:"credits"`
	PriceCents int64 `json:"price_cents"`
}

// CreditPackages returns the purchasable credit packages, smallest first.
func CreditPackages() []CreditPackage {
	return []CreditPackage{
		{Credits: 100, PriceCents: 4900},
		{Credits: 1000, PriceCents: 39900},
		{Credits: 10000, PriceCents: 299900},
	}
}

// PackageForCredits looks up a credit package by its credit count.
func PackageForCredits(credits int) (CreditPackage, bool) {
	for _, p := range CreditPackages() {
		if p.Credits == credits {
			return p, true
		}
	}
	return CreditPackage{}, false
}
