package auth

import (
	"testing"
	"time"

	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-for-unit-tests-only!",
		AccessTokenExpiration: time.Hour,
		Issuer:                "debit-note-backend",
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	service := newTestService()
	userID := uuid.New()

	token, expiresAt, err := service.GenerateToken(userID, "mai.tran", "accountant")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "mai.tran", claims.Username)
	assert.Equal(t, "accountant", claims.Role)

	actor, err := claims.ActorID()
	require.NoError(t, err)
	assert.Equal(t, userID, actor)
}

func TestJWTService_ValidateToken_Errors(t *testing.T) {
	service := newTestService()

	t.Run("garbage token", func(t *testing.T) {
		_, err := service.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "a-completely-different-signing-secret",
			AccessTokenExpiration: time.Hour,
			Issuer:                "debit-note-backend",
		})
		token, _, err := other.GenerateToken(uuid.New(), "x", "")
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-for-unit-tests-only!",
			AccessTokenExpiration: -time.Minute,
			Issuer:                "debit-note-backend",
		})
		token, _, err := expired.GenerateToken(uuid.New(), "x", "")
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-for-unit-tests-only!",
			AccessTokenExpiration: time.Hour,
			Issuer:                "someone-else",
		})
		token, _, err := other.GenerateToken(uuid.New(), "x", "")
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
