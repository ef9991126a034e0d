package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(JWTConfig{Secret: "secret", ExpiryHours: 1})
	userID := uuid.New()

	token, expiresAt, err := issuer.Issue(userID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	parsed, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestTokenIssuerRejects(t *testing.T) {
	issuer := NewTokenIssuer(JWTConfig{Secret: "secret", ExpiryHours: 1})
	token, _, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		other := NewTokenIssuer(JWTConfig{Secret: "other", ExpiryHours: 1})
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewTokenIssuer(JWTConfig{Secret: "secret", ExpiryHours: 1})
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
