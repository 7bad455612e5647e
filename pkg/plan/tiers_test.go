package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierDeveloper, ParseTier("developer"))
	assert.Equal(t, TierCompliance, ParseTier("compliance"))
	assert.Equal(t, TierEnterprise, ParseTier("enterprise"))

	// Unknown values fail closed to the lowest tier
	assert.Equal(t, TierDeveloper, ParseTier(""))
	assert.Equal(t, TierDeveloper, ParseTier("platinum"))
	assert.Equal(t, TierDeveloper, ParseTier("ENTERPRISE"))
}

func TestBudgetFor(t *testing.T) {
	tests := []struct {
		tier    Tier
		ceiling int
	}{
		{TierDeveloper, 1000},
		{TierCompliance, 10000},
		{TierEnterprise, 100000},
		{Tier("unknown"), 1000}, // falls back to developer ceiling
	}

	for _, tc := range tests {
		b := BudgetFor(tc.tier)
		assert.Equal(t, tc.ceiling, b.MaxRequests, "tier %s", tc.tier)
		assert.Equal(t, 15*time.Minute, b.Window, "tier %s", tc.tier)
	}
}

func TestAllowed_MatchesStaticTable(t *testing.T) {
	// Exhaustive 3 tiers x 6 known features
	table := []struct {
		tier    Tier
		feature Feature
		want    bool
	}{
		{TierDeveloper, FeatureURLScan, true},
		{TierDeveloper, FeatureBasicReports, true},
		{TierDeveloper, FeatureVerticalDiscovery, false},
		{TierDeveloper, FeatureAIFixes, false},
		{TierDeveloper, FeatureLegalRisk, false},
		{TierDeveloper, FeatureAPIAccess, false},
		{TierDeveloper, FeatureWhiteLabel, false},

		{TierCompliance, FeatureURLScan, true},
		{TierCompliance, FeatureBasicReports, false},
		{TierCompliance, FeatureVerticalDiscovery, true},
		{TierCompliance, FeatureAIFixes, true},
		{TierCompliance, FeatureLegalRisk, true},
		{TierCompliance, FeatureAPIAccess, false},
		{TierCompliance, FeatureWhiteLabel, false},

		{TierEnterprise, FeatureURLScan, true},
		{TierEnterprise, FeatureBasicReports, false},
		{TierEnterprise, FeatureVerticalDiscovery, true},
		{TierEnterprise, FeatureAIFixes, true},
		{TierEnterprise, FeatureLegalRisk, true},
		{TierEnterprise, FeatureAPIAccess, true},
		{TierEnterprise, FeatureWhiteLabel, true},
	}

	for _, tc := range table {
		assert.Equal(t, tc.want, Allowed(tc.tier, tc.feature), "%s / %s", tc.tier, tc.feature)
	}
}

func TestAllowed_UnknownInputs(t *testing.T) {
	// Unknown feature denied for every tier
	for _, tier := range []Tier{TierDeveloper, TierCompliance, TierEnterprise} {
		assert.False(t, Allowed(tier, Feature("time_travel")))
	}

	// Unknown tier has the empty feature set
	for _, f := range []Feature{FeatureURLScan, FeatureBasicReports, FeatureAIFixes} {
		assert.False(t, Allowed(Tier("trial"), f))
	}
}

func TestUpgradePriceCents(t *testing.T) {
	assert.Equal(t, int64(CompliancePriceCents), UpgradePriceCents(FeatureAIFixes))
	assert.Equal(t, int64(EnterprisePriceCents), UpgradePriceCents(FeatureWhiteLabel))

	// Unmapped features default to the highest tier's price
	assert.Equal(t, int64(EnterprisePriceCents), UpgradePriceCents(Feature("unmapped")))
	assert.Equal(t, int64(EnterprisePriceCents), UpgradePriceCents(FeatureURLScan))
}

func TestUpgradeHint(t *testing.T) {
	assert.Contains(t, UpgradeHint(TierDeveloper), "pricing")
	assert.Contains(t, UpgradeHint(TierCompliance), "sales")
	assert.Contains(t, UpgradeHint(TierEnterprise), "sales")
	assert.Contains(t, UpgradeHint(Tier("unknown")), "pricing")
}

func TestCreditPackages(t *testing.T) {
	pkgs := CreditPackages()
	assert.Len(t, pkgs, 3)
	assert.Equal(t, CreditPackage{Credits: 100, PriceCents: 4900}, pkgs[0])
	assert.Equal(t, CreditPackage{Credits: 1000, PriceCents: 39900}, pkgs[1])
	assert.Equal(t, CreditPackage{Credits: 10000, PriceCents: 299900}, pkgs[2])

	p, ok := PackageForCredits(1000)
	assert.True(t, ok)
	assert.Equal(t, int64(39900), p.PriceCents)

	_, ok = PackageForCredits(500)
	assert.False(t, ok)
}
