package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/complyscan/complyscan/pkg/plan"
)

const (
	// TokenLifetime is the fixed validity window for issued tokens
	TokenLifetime = 24 * time.Hour

	// verifyCacheSize bounds the cache of recently verified tokens
	verifyCacheSize = 1024
)

// DevFallbackSecret is the signing key used when no secret is configured
// in a development environment. It must never reach production; config
// validation rejects it outside development and the issuer logs loudly
// when it is in use.
const DevFallbackSecret = "complyscan-dev-only-insecure-secret"

var (
	// ErrTokenMissing is returned when no token was presented
	ErrTokenMissing = errors.New("no token presented")

	// ErrTokenInvalid is returned when the signature does not validate
	// or the token is malformed
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired is returned when the token is past its expiry
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the JWT claims shape for session tokens
type Claims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
	Tier    string `json:"tier"`
	Credits int    `json:"credits"`
}

type cachedIdentity struct {
	identity  Identity
	expiresAt time.Time
}

// Issuer creates and verifies session tokens with a symmetric key.
type Issuer struct {
	secret []byte
	cache  *lru.Cache[string, cachedIdentity]
}

// NewIssuer creates an Issuer signing with the given secret.
func NewIssuer(secret string) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}
	cache, err := lru.New[string, cachedIdentity](verifyCacheSize)
	if err != nil {
		return nil, err
	}
	return &Issuer{
		secret: []byte(secret),
		cache:  cache,
	}, nil
}

// UsesDevFallback reports whether the issuer was built with the insecure
// development key.
func (i *Issuer) UsesDevFallback() bool {
	return string(i.secret) == DevFallbackSecret
}

// Issue serializes the identity claims into a signed token expiring
// TokenLifetime from now.
func (i *Issuer) Issue(identity Identity) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Email:   identity.Email,
		Company: identity.Company,
		Tier:    string(identity.Tier),
		Credits: identity.Credits,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify validates a token and reconstructs the identity claims.
//
// An unknown tier value in the claims parses to the developer tier; a
// token written with a stale tier set must degrade, not crash. Recently
// verified tokens are served from a bounded cache; cached entries are
// still re-checked against expiry on every hit.
func (i *Issuer) Verify(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, ErrTokenMissing
	}

	if entry, ok := i.cache.Get(tokenString); ok {
		if time.Now().Before(entry.expiresAt) {
			return entry.identity, nil
		}
		i.cache.Remove(tokenString)
		return Identity{}, ErrTokenExpired
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ExpiresAt == nil {
		// Every token this system accepts has a bounded lifetime; one
		// without an expiry is malformed no matter who signed it.
		return Identity{}, ErrTokenInvalid
	}

	identity := Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Company: claims.Company,
		Tier:    plan.ParseTier(claims.Tier),
		Credits: claims.Credits,
	}

	i.cache.Add(tokenString, cachedIdentity{
		identity:  identity,
		expiresAt: claims.ExpiresAt.Time,
	})

	return identity, nil
}
