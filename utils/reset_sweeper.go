package utils

import (
	"context"
	"time"

	"github.com/polgen/storebackend/logging"
	"github.com/polgen/storebackend/repository"
)

// ResetTokenSweeper periodically clears expired password reset tokens so
// stale rows do not accumulate.
type ResetTokenSweeper struct {
	users    repository.UserRepository
	interval time.Duration
	log      logging.Logger
	now      func() time.Time
}

func NewResetTokenSweeper(users repository.UserRepository, interval time.Duration, log logging.Logger) *ResetTokenSweeper {
	return &ResetTokenSweeper{users: users, interval: interval, log: log, now: time.Now}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *ResetTokenSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.SweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *ResetTokenSweeper) SweepOnce(ctx context.Context) int64 {
	n, err := s.users.ClearExpiredResetTokens(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn(ctx, "reset token sweep failed", "error", err)
		}
		return 0
	}
	if n > 0 {
		s.log.Info(ctx, "cleared expired reset tokens", "count", n)
	}
	return n
}
