package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the iss claim of every token minted here.
const Issuer = "repeticio"

// DefaultTTL is the lifetime of a minted token.
const DefaultTTL = time.Hour

var (
	// ErrNoSecret is returned when signing or verifying without a secret.
	ErrNoSecret = errors.New("auth: no token secret configured")

	// ErrNoSubject is returned when a token does not name a user.
	ErrNoSubject = errors.New("auth: token has no subject")
)

// Claims are the JWT claims carried by a bearer token. The subject is the
// user identity.
type Claims struct {
	jwt.RegisteredClaims
}

// Identity returns the user identity the token was issued for.
func (c *Claims) Identity() string {
	return c.Subject
}

// Signer mints HS256 bearer tokens for a single user identity. It caches the
// current token and renews it shortly before expiry.
type Signer struct {
	secret   []byte
	identity string
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	current string
	expires time.Time
}

// NewSigner creates a Signer. A zero ttl selects DefaultTTL.
func NewSigner(secret, identity string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if identity == "" {
		return nil, ErrNoSubject
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Signer{
		secret:   []byte(secret),
		identity: identity,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// Token returns a valid signed token, minting a new one when the cached
// token is within a tenth of its lifetime of expiring.
func (s *Signer) Token(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.current != "" && now.Before(s.expires.Add(-s.ttl/10)) {
		return s.current, nil
	}

	exp := now.Add(s.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			Subject:   s.identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	s.current, s.expires = signed, exp
	return signed, nil
}

// Verify parses and validates a bearer token signed with secret.
func Verify(secret, tokenStr string) (*Claims, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("auth: invalid token claims")
	}
	if claims.Subject == "" {
		return nil, ErrNoSubject
	}
	return claims, nil
}
