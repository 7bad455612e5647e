package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyscan/complyscan/pkg/auth"
	"github.com/complyscan/complyscan/pkg/httputil"
	"github.com/complyscan/complyscan/pkg/plan"
)

func TestFeatureGate_AllowsAndDenies(t *testing.T) {
	gate := NewFeatureGate(nil, nil)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		tier    plan.Tier
		feature plan.Feature
		status  int
	}{
		{plan.TierDeveloper, plan.FeatureURLScan, http.StatusOK},
		{plan.TierDeveloper, plan.FeatureAIFixes, http.StatusForbidden},
		{plan.TierCompliance, plan.FeatureAIFixes, http.StatusOK},
		{plan.TierCompliance, plan.FeatureWhiteLabel, http.StatusForbidden},
		{plan.TierEnterprise, plan.FeatureWhiteLabel, http.StatusOK},
	}

	for _, tc := range tests {
		handler := gate.Require(tc.feature)(ok)
		identity := auth.Identity{Subject: "usr_fg", Tier: tc.tier}
		r := withIdentity(httptest.NewRequest("POST", "/v1/fixes", nil), identity)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, tc.status, w.Code, "%s / %s", tc.tier, tc.feature)
	}
}

func TestFeatureGate_DenialCarriesUpsell(t *testing.T) {
	gate := NewFeatureGate(nil, nil)
	handler := gate.Require(plan.FeatureAIFixes)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	identity := auth.Identity{Subject: "usr_fg", Tier: plan.TierDeveloper}
	r := withIdentity(httptest.NewRequest("POST", "/v1/fixes", nil), identity)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	resp := decodeDenial(t, w)
	assert.Equal(t, httputil.CodeFeatureDenied, resp.Code)
	assert.NotEmpty(t, resp.Upgrade)

	details, err := json.Marshal(resp.Details)
	require.NoError(t, err)
	var d struct {
		Feature           string `json:"feature"`
		Tier              string `json:"tier"`
		UpgradePriceCents int64  `json:"upgrade_price_cents"`
	}
	require.NoError(t, json.Unmarshal(details, &d))
	assert.Equal(t, "ai_fixes", d.Feature)
	assert.Equal(t, "developer", d.Tier)
	assert.Equal(t, int64(plan.CompliancePriceCents), d.UpgradePriceCents)
}

func TestFeatureGate_UnknownTierDeniedEverything(t *testing.T) {
	gate := NewFeatureGate(nil, nil)
	handler := gate.Require(plan.FeatureURLScan)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	// An identity with a tier value no release ever shipped; the gate
	// treats it as the empty feature set.
	identity := auth.Identity{Subject: "usr_fg", Tier: plan.Tier("vip")}
	r := withIdentity(httptest.NewRequest("POST", "/v1/scans", nil), identity)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFeatureGate_RequiresAuth(t *testing.T) {
	gate := NewFeatureGate(nil, nil)
	handler := gate.Require(plan.FeatureURLScan)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/v1/scans", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
