// Package auth issues and verifies the signed session tokens that carry a
// caller's identity claims through the gate pipeline.
//
// Tokens are HS256 JWTs with a fixed 24-hour validity. The verifier never
// panics on malformed input; callers always get an Identity or one of the
// typed errors (ErrTokenMissing, ErrTokenInvalid, ErrTokenExpired).
//
// The credit balance embedded in the claims is a seed written at issue
// time, not the source of truth; see pkg/credits for the durable counter.
package auth
