// Package middleware implements the tiered gate pipeline.
//
// # Ordering requirements
//
// Gates have strict ordering dependencies. The required order (outer to
// inner) is:
//
//  1. Auth - verifies the bearer token and sets the identity context
//  2. RateLimit - needs the identity for the per-caller budget key
//  3. RequireFeature - needs the identity's tier (only on gated routes)
//  4. CreditGate - needs the identity's subject (only on credit-priced routes)
//
// Example:
//
//	router.Use(gates.Auth)
//	router.Use(gates.RateLimit)
//	router.Handle("/v1/fixes",
//	    gates.RequireFeature(plan.FeatureAIFixes)(
//	        gates.CreditGate(handler))).Methods("POST")
//
// A gate running before Auth sees no identity and rejects the request
// with AUTH_REQUIRED; gates never silently skip their check.
//
// Every denial terminates the request with a JSON body carrying a stable
// machine code (see pkg/httputil) and human-readable upgrade guidance.
package middleware
