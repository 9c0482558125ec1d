package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	s := NewTokenService("super-secret", time.Hour)

	tok, err := s.Issue("user-123", "admin")
	require.NoError(t, err)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, "admin", claims.Role)
	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestTokenService_Expired(t *testing.T) {
	s := NewTokenService("secret", time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	s.now = func() time.Time { return issuedAt }

	tok, err := s.Issue("u1", "user")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_ValidUntilExpiry(t *testing.T) {
	s := NewTokenService("secret", time.Hour)
	issuedAt := time.Now()
	s.now = func() time.Time { return issuedAt }

	tok, err := s.Issue("u1", "user")
	require.NoError(t, err)

	s.now = func() time.Time { return issuedAt.Add(59 * time.Minute) }
	_, err = s.Verify(tok)
	require.NoError(t, err)

	s.now = func() time.Time { return issuedAt.Add(61 * time.Minute) }
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_WrongSecret(t *testing.T) {
	tok, err := NewTokenService("right-secret", time.Hour).Issue("u2", "user")
	require.NoError(t, err)

	_, err = NewTokenService("wrong-secret", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_Malformed(t *testing.T) {
	s := NewTokenService("k", time.Hour)

	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		_, err := s.Verify(tok)
		assert.ErrorIs(t, err, ErrTokenInvalid, tok)
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u3",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = NewTokenService("k", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_RequiresSubjectAndExpiry(t *testing.T) {
	s := NewTokenService("k", time.Hour)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = s.Verify(noSubject)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u4"},
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = s.Verify(noExpiry)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
