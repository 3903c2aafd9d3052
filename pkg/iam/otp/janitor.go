package otp

import (
	"context"
	"time"

	"github.com/Abraxas-365/otpauth/pkg/logx"
)

// RunJanitor purges stale records every interval until ctx is cancelled.
// Validation never depends on it; it only bounds memory held for
// identifiers that request a code and never come back.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logx.Infof("otp: janitor running every %s", interval)

	for {
		select {
		case <-ctx.Done():
			logx.Info("otp: janitor stopped")
			return
		case <-ticker.C:
			if n := s.Purge(); n > 0 {
				logx.WithField("purged", n).Debug("otp: purged stale records")
			}
		}
	}
}
