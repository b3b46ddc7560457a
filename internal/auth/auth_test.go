package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	require.NoError(t, err)
	return key
}

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken("abc").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

func TestJWTIssuer(t *testing.T) {
	key := newKey(t)
	issued := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	issuer, err := NewJWTIssuer(key, "cpk", "cpk", time.Hour, WithClock(func() time.Time { return issued }))
	require.NoError(t, err)

	raw, err := issuer.Token(context.Background())
	require.NoError(t, err)

	var claims Claims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES512"}), jwt.WithTimeFunc(func() time.Time { return issued.Add(time.Minute) }))
	require.NoError(t, err)
	assert.True(t, parsed.Valid)

	assert.Equal(t, "cpk", claims.Issuer)
	assert.Equal(t, "cpk", claims.App)
	assert.Equal(t, issued, claims.IssuedAt.Time.UTC())
	assert.Equal(t, issued.Add(time.Hour), claims.ExpiresAt.Time.UTC())
	assert.NotEmpty(t, claims.ID)

	again, err := issuer.Token(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, raw, again, "every token carries a fresh jti")
}

func TestNewJWTIssuerRejectsBadInput(t *testing.T) {
	_, err := NewJWTIssuer(nil, "cpk", "cpk", time.Hour)
	assert.Error(t, err)

	_, err = NewJWTIssuer(newKey(t), "cpk", "cpk", 0)
	assert.Error(t, err)
}

func TestLoadPrivateKey(t *testing.T) {
	key := newKey(t)
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), 0o600))

	loaded, err := LoadPrivateKey(path)
	require.NoError(t, err)
	assert.True(t, key.Equal(loaded))

	_, err = LoadPrivateKey(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)

	garbage := filepath.Join(t.TempDir(), "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a key"), 0o600))
	_, err = LoadPrivateKey(garbage)
	assert.Error(t, err)
}
