package analyticsinfra

import (
	"context"
	"time"

	"github.com/Abraxas-365/otpauth/pkg/iam/analytics"
	"github.com/Abraxas-365/otpauth/pkg/logx"
)

// LogxSink implements analytics.Sink as structured logx audit lines.
type LogxSink struct {
	logger *logx.Logger
}

// NewLogxSink logs through logger, or the package default when nil.
func NewLogxSink(logger *logx.Logger) *LogxSink {
	return &LogxSink{logger: logger}
}

func (s *LogxSink) entry(event analytics.EventName, identifier string) *logx.Entry {
	logger := s.logger
	if logger == nil {
		logger = logx.GetDefaultLogger()
	}
	return logger.WithFields(logx.Fields{
		"audit_event": event,
		"identifier":  identifier,
	})
}

func (s *LogxSink) OTPGenerated(_ context.Context, identifier, code string) error {
	e := s.entry(analytics.EventOTPGenerated, identifier)
	if code != "" {
		e = e.WithField("code", code)
	}
	e.Info("Audit: OTP generated")
	return nil
}

func (s *LogxSink) ValidationSucceeded(_ context.Context, identifier string) error {
	s.entry(analytics.EventValidationSucceeded, identifier).
		WithField("success", true).
		Info("Audit: OTP verification")
	return nil
}

func (s *LogxSink) ValidationFailed(_ context.Context, identifier, reason string) error {
	s.entry(analytics.EventValidationFailed, identifier).
		WithFields(logx.Fields{"success": false, "reason": reason}).
		Info("Audit: OTP verification")
	return nil
}

func (s *LogxSink) LoggedOut(_ context.Context, identifier string, sessionDuration time.Duration) error {
	s.entry(analytics.EventLoggedOut, identifier).
		WithField("session_duration_ms", sessionDuration.Milliseconds()).
		Info("Audit: logout")
	return nil
}
