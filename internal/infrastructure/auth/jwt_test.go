package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/marketplace/inventory/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                testSecret,
		Issuer:                "marketplace-identity",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService()

	token, expiresAt, err := svc.GenerateAccessToken("user-42", "clerk")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Minute)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.ActorID())
	assert.Equal(t, "clerk", claims.Username)
	assert.Equal(t, "marketplace-identity", claims.Issuer)
}

func TestJWTService_ValidateAccessToken_Errors(t *testing.T) {
	svc := newTestJWTService()

	t.Run("expired", func(t *testing.T) {
		past := newTestJWTService()
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _, err := past.GenerateAccessToken("user-1", "")
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("not yet valid", func(t *testing.T) {
		future := newTestJWTService()
		future.now = func() time.Time { return time.Now().Add(time.Hour) }
		token, _, err := future.GenerateAccessToken("user-1", "")
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrTokenNotYetValid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-another-secret-xx", Issuer: "marketplace-identity", AccessTokenExpiration: time.Minute})
		token, _, err := other.GenerateAccessToken("user-1", "")
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "someone-else", AccessTokenExpiration: time.Minute})
		token, _, err := other.GenerateAccessToken("user-1", "")
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects other signing methods", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "marketplace-identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrMissingUserID)
	})
}

func TestClaims_ActorID(t *testing.T) {
	assert.Equal(t, "u1", (&Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{Subject: "s1"}}).ActorID())
	assert.Equal(t, "s1", (&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "s1"}}).ActorID())
}
