package analytics

import (
	"context"
	"time"

	"github.com/Abraxas-365/otpauth/pkg/asyncx"
	"github.com/Abraxas-365/otpauth/pkg/errx"
	"github.com/Abraxas-365/otpauth/pkg/logx"
)

// GuardedSink isolates a Sink: errors and panics are logged and swallowed.
type GuardedSink struct {
	inner Sink
}

// Guard wraps s so that none of its failures reach the caller.
func Guard(s Sink) *GuardedSink {
	if g, ok := s.(*GuardedSink); ok {
		return g
	}
	if s == nil {
		s = Nop{}
	}
	return &GuardedSink{inner: s}
}

func (g *GuardedSink) run(event EventName, identifier string, fn func() error) {
	if err := asyncx.Safe(fn); err != nil {
		logx.WithFields(logx.Fields{
			"event":      event,
			"identifier": identifier,
		}).WithError(errx.Wrap(err, "analytics sink failed", errx.TypeExternal)).Warn("analytics: event dropped")
	}
}

func (g *GuardedSink) OTPGenerated(ctx context.Context, identifier, code string) error {
	g.run(EventOTPGenerated, identifier, func() error { return g.inner.OTPGenerated(ctx, identifier, code) })
	return nil
}

func (g *GuardedSink) ValidationSucceeded(ctx context.Context, identifier string) error {
	g.run(EventValidationSucceeded, identifier, func() error { return g.inner.ValidationSucceeded(ctx, identifier) })
	return nil
}

func (g *GuardedSink) ValidationFailed(ctx context.Context, identifier, reason string) error {
	g.run(EventValidationFailed, identifier, func() error { return g.inner.ValidationFailed(ctx, identifier, reason) })
	return nil
}

func (g *GuardedSink) LoggedOut(ctx context.Context, identifier string, sessionDuration time.Duration) error {
	g.run(EventLoggedOut, identifier, func() error { return g.inner.LoggedOut(ctx, identifier, sessionDuration) })
	return nil
}
