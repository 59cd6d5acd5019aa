package auth

import (
	"testing"
	"time"

	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/config"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "tenerife-paradise-tours",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	tok, err := GenerateAccessToken(cfg, 7, "client@example.com", domain.RoleClient)
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "client@example.com", claims.Email)
	assert.Equal(t, domain.RoleClient, claims.Role)
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	tok, err := GenerateAccessToken(cfg, 7, "client@example.com", domain.RoleClient)
	require.NoError(t, err)

	other := testJWTConfig()
	other.AccessSecret = "a-different-secret"
	_, err = ParseAccessToken(other, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	tok, err := GenerateAccessToken(cfg, 7, "client@example.com", domain.RoleClient)
	require.NoError(t, err)

	other := testJWTConfig()
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenExpiryIsDistinct(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessExpiry = -time.Minute
	tok, err := GenerateAccessToken(cfg, 7, "client@example.com", domain.RoleClient)
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	tok, err := GenerateRefreshToken(cfg, 42)
	require.NoError(t, err)

	id, err := ParseRefreshToken(cfg, tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestRefreshTokenExpiryIsDistinct(t *testing.T) {
	cfg := testJWTConfig()
	cfg.RefreshExpiry = -time.Minute
	tok, err := GenerateRefreshToken(cfg, 42)
	require.NoError(t, err)

	_, err = ParseRefreshToken(cfg, tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	cfg := testJWTConfig()
	refresh, err := GenerateRefreshToken(cfg, 42)
	require.NoError(t, err)

	// A refresh token presented as an access token fails on the secret.
	_, err = ParseAccessToken(cfg, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
