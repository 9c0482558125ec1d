package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResetTokens(now time.Time) *ResetTokenService {
	s := NewResetTokenService(time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestResetToken_Issue(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := newResetTokens(now)

	raw, hash, expiry, err := s.Issue()
	require.NoError(t, err)

	assert.Len(t, raw, 64)
	assert.Len(t, hash, 64)
	assert.NotEqual(t, raw, hash)
	assert.Equal(t, s.Hash(raw), hash)
	assert.Equal(t, now.Add(time.Hour), expiry)

	raw2, _, _, err := s.Issue()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
}

func TestResetToken_Validate(t *testing.T) {
	now := time.Now()
	s := newResetTokens(now)

	raw, hash, _, err := s.Issue()
	require.NoError(t, err)

	assert.True(t, s.Validate(raw, hash, now.Add(time.Second)))
	assert.False(t, s.Validate(raw, hash, now.Add(-time.Second)))
	assert.False(t, s.Validate(raw, hash, now), "expiry instant itself is not valid")
	assert.False(t, s.Validate("wrong", hash, now.Add(time.Hour)))
	assert.False(t, s.Validate("", hash, now.Add(time.Hour)))
	assert.False(t, s.Validate(raw, "", now.Add(time.Hour)))
}

func TestResetToken_Expired(t *testing.T) {
	now := time.Now()
	s := newResetTokens(now)

	assert.True(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(-time.Minute)))
	assert.False(t, s.Expired(now.Add(time.Minute)))
}

func TestResetToken_DefaultTTL(t *testing.T) {
	s := NewResetTokenService(0)
	assert.Equal(t, DefaultResetTokenTTL, s.ttl)
}
