package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	resetTokenBytes      = 32
	DefaultResetTokenTTL = time.Hour
)

// ResetTokenService issues password reset tokens. Only the SHA-256 of the
// raw token is ever persisted; the raw value goes to the user by email.
type ResetTokenService struct {
	ttl time.Duration
	now func() time.Time
}

func NewResetTokenService(ttl time.Duration) *ResetTokenService {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &ResetTokenService{ttl: ttl, now: time.Now}
}

// Issue returns the raw token, its hash and the expiry to store with it.
func (s *ResetTokenService) Issue() (raw, hash string, expiry time.Time, err error) {
	b := make([]byte, resetTokenBytes)
	if _, err = rand.Read(b); err != nil {
		return "", "", time.Time{}, fmt.Errorf("generate reset token: %w", err)
	}
	raw = hex.EncodeToString(b)
	return raw, s.Hash(raw), s.now().Add(s.ttl), nil
}

// Hash is a fast digest; the token already carries 256 bits of entropy.
func (s *ResetTokenService) Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Validate checks raw against the stored hash and that now is strictly
// before expiry.
func (s *ResetTokenService) Validate(raw, storedHash string, storedExpiry time.Time) bool {
	if raw == "" || storedHash == "" {
		return false
	}
	match := subtle.ConstantTimeCompare([]byte(s.Hash(raw)), []byte(storedHash)) == 1
	return match && s.now().Before(storedExpiry)
}

// Expired reports whether a stored expiry has passed.
func (s *ResetTokenService) Expired(storedExpiry time.Time) bool {
	return !s.now().Before(storedExpiry)
}

// Now is the clock expiries are compared against.
func (s *ResetTokenService) Now() time.Time {
	return s.now()
}

func (s *ResetTokenService) TTL() time.Duration {
	return s.ttl
}
