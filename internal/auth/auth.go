// Package auth supplies bearer tokens for the Ziskej API.
package auth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CredentialProvider returns the bearer token to send with a request.
// An empty token means the request goes out unauthenticated.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a pre-issued bearer token.
type StaticToken string

// Token returns the token unchanged.
func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// Claims is the payload of a Ziskej access token.
type Claims struct {
	App string `json:"app"`
	jwt.RegisteredClaims
}

// JWTIssuer signs short-lived ES512 tokens with the client's private key.
type JWTIssuer struct {
	key    *ecdsa.PrivateKey
	issuer string
	app    string
	ttl    time.Duration
	now    func() time.Time
}

// IssuerOption customizes a JWTIssuer.
type IssuerOption func(*JWTIssuer)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) IssuerOption {
	return func(j *JWTIssuer) { j.now = now }
}

// NewJWTIssuer returns an issuer for the given key, iss/app claim values and token lifetime.
func NewJWTIssuer(key *ecdsa.PrivateKey, issuer, app string, ttl time.Duration, opts ...IssuerOption) (*JWTIssuer, error) {
	if key == nil {
		return nil, errors.New("jwt issuer: private key is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("jwt issuer: token ttl must be positive, got %s", ttl)
	}
	j := &JWTIssuer{key: key, issuer: issuer, app: app, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// LoadPrivateKey reads a PEM-encoded EC private key.
func LoadPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", path, err)
	}
	return key, nil
}

// Token signs a fresh token for every call.
func (j *JWTIssuer) Token(context.Context) (string, error) {
	now := j.now()
	claims := Claims{
		App: j.app,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodES512, claims).SignedString(j.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
