package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	s := NewTokenService("secret", "creatorbridge", time.Hour)

	token, err := s.GenerateToken("agent", []string{"set"})
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "agent", claims.Subject)
	assert.Equal(t, "creatorbridge", claims.Issuer)
	assert.Equal(t, []string{"set"}, claims.Scopes)
	require.NotNil(t, claims.ExpiresAt)
}

func TestTokenService_NoExpiry(t *testing.T) {
	s := NewTokenService("secret", "", 0)

	token, err := s.GenerateToken("editor", nil)
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}

func TestTokenService_Expired(t *testing.T) {
	s := NewTokenService("secret", "", time.Minute)
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := s.GenerateToken("agent", nil)
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_WrongIssuer(t *testing.T) {
	token, err := NewTokenService("secret", "someone-else", 0).GenerateToken("agent", nil)
	require.NoError(t, err)

	_, err = NewTokenService("secret", "creatorbridge", 0).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsOtherMethods(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "agent"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenService("secret", "", 0).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RequiresSubject(t *testing.T) {
	s := NewTokenService("secret", "", 0)
	token, err := s.GenerateToken("", nil)
	require.NoError(t, err)

	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
