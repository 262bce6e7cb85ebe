package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	s, err := NewSigner("s3cret", "ana", time.Minute)
	require.NoError(t, err)

	tok, err := s.Token(context.Background())
	require.NoError(t, err)

	claims, err := Verify("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, "ana", claims.Identity())
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestVerifyWrongSecret(t *testing.T) {
	s, err := NewSigner("s3cret", "ana", time.Minute)
	require.NoError(t, err)
	tok, err := s.Token(context.Background())
	require.NoError(t, err)

	_, err = Verify("other", tok)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestVerifyExpired(t *testing.T) {
	s, err := NewSigner("s3cret", "ana", time.Minute)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	tok, err := s.Token(context.Background())
	require.NoError(t, err)

	_, err = Verify("s3cret", tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   "ana",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = Verify("s3cret", tok)
	assert.Error(t, err)
}

func TestSignerCachesUntilNearExpiry(t *testing.T) {
	s, err := NewSigner("s3cret", "ana", 10*time.Minute)
	require.NoError(t, err)

	base := time.Now()
	s.now = func() time.Time { return base }
	first, err := s.Token(context.Background())
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(time.Minute) }
	second, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	s.now = func() time.Time { return base.Add(9*time.Minute + 30*time.Second) }
	third, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestNewSignerRequiresSecretAndIdentity(t *testing.T) {
	_, err := NewSigner("", "ana", 0)
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = NewSigner("s3cret", "", 0)
	assert.ErrorIs(t, err, ErrNoSubject)

	_, err = Verify("", "x")
	assert.ErrorIs(t, err, ErrNoSecret)
}
