package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestGenerateTokenPair_ClaimsRoundTrip(t *testing.T) {
	before := time.Now()
	pair, err := GenerateTokenPair(7, "buyer@example.com", "USER", testSecret, 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.WithinDuration(t, before.Add(15*time.Minute), pair.ExpiresAt, 2*time.Second)

	access, err := ValidateToken(pair.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(7), access.UserID)
	assert.Equal(t, "buyer@example.com", access.Email)
	assert.Equal(t, "USER", access.Role)
	assert.Equal(t, TokenTypeAccess, access.TokenType)
	assert.Equal(t, "7", access.Subject)

	refresh, err := ValidateToken(pair.RefreshToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.True(t, refresh.ExpiresAt.After(access.ExpiresAt.Time))
}

func TestValidateToken_Failures(t *testing.T) {
	pair, err := GenerateTokenPair(1, "admin@example.com", "ADMIN", testSecret, time.Minute, time.Hour)
	require.NoError(t, err)

	expired, err := GenerateTokenPair(1, "admin@example.com", "ADMIN", testSecret, -time.Minute, time.Hour)
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1, TokenType: TokenTypeAccess})
	noneToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{"wrong secret", pair.AccessToken, "other-secret", ErrInvalidToken},
		{"tampered payload", pair.AccessToken[:len(pair.AccessToken)-4] + "abcd", testSecret, ErrInvalidToken},
		{"garbage", "not.a.jwt", testSecret, ErrInvalidToken},
		{"empty", "", testSecret, ErrInvalidToken},
		{"alg none", noneToken, testSecret, ErrInvalidToken},
		{"expired", expired.AccessToken, testSecret, ErrExpiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, claims)
		})
	}
}

func TestClaims_RemainingLifetime(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute))}}

	assert.Equal(t, 10*time.Minute, claims.RemainingLifetime(now))
	assert.Zero(t, claims.RemainingLifetime(now.Add(time.Hour)))
	assert.Zero(t, (&Claims{}).RemainingLifetime(now))
}
