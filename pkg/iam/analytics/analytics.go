package analytics

import (
	"context"
	"time"

	"github.com/Abraxas-365/otpauth/pkg/clockx"
	"github.com/Abraxas-365/otpauth/pkg/kernel"
)

// Sink receives authentication events. Calls are fire-and-forget from the
// caller's point of view: the controller wraps every sink in Guard, so a
// returned error or a panic is logged and otherwise ignored.
type Sink interface {
	OTPGenerated(ctx context.Context, identifier, code string) error
	ValidationSucceeded(ctx context.Context, identifier string) error
	ValidationFailed(ctx context.Context, identifier, reason string) error
	LoggedOut(ctx context.Context, identifier string, sessionDuration time.Duration) error
}

// EventName names an analytics event.
type EventName string

const (
	EventOTPGenerated        EventName = "otp_generated"
	EventValidationSucceeded EventName = "otp_validation_succeeded"
	EventValidationFailed    EventName = "otp_validation_failed"
	EventLoggedOut           EventName = "logged_out"
)

// Failure reasons reported with EventValidationFailed.
const (
	ReasonInvalidOTP        = "Invalid OTP"
	ReasonExpired           = "OTP Expired"
	ReasonAttemptsExhausted = "Attempts Exhausted"
	ReasonNoOTPFound        = "No OTP Found"
)

// Event is the flat form of a Sink call, used by sinks that ship events somewhere.
type Event struct {
	ID                kernel.EventID `json:"id"`
	Name              EventName      `json:"name"`
	Identifier        string         `json:"identifier"`
	Code              string         `json:"code,omitempty"`
	Reason            string         `json:"reason,omitempty"`
	SessionDurationMs int64          `json:"session_duration_ms,omitempty"`
	OccurredAt        time.Time      `json:"occurred_at"`
}

// Emitter handles one flat Event.
type Emitter interface {
	Emit(ctx context.Context, e Event) error
}

// EmitterSink adapts an Emitter to the Sink interface.
type EmitterSink struct {
	emitter Emitter
	clock   clockx.Clock
}

// FromEmitter returns a Sink that turns each call into an Event for e.
func FromEmitter(e Emitter, clock clockx.Clock) *EmitterSink {
	if clock == nil {
		clock = clockx.New()
	}
	return &EmitterSink{emitter: e, clock: clock}
}

func (s *EmitterSink) event(name EventName, identifier string) Event {
	return Event{
		ID:         kernel.NewEventID(),
		Name:       name,
		Identifier: identifier,
		OccurredAt: s.clock.Now(),
	}
}

func (s *EmitterSink) OTPGenerated(ctx context.Context, identifier, code string) error {
	e := s.event(EventOTPGenerated, identifier)
	e.Code = code
	return s.emitter.Emit(ctx, e)
}

func (s *EmitterSink) ValidationSucceeded(ctx context.Context, identifier string) error {
	return s.emitter.Emit(ctx, s.event(EventValidationSucceeded, identifier))
}

func (s *EmitterSink) ValidationFailed(ctx context.Context, identifier, reason string) error {
	e := s.event(EventValidationFailed, identifier)
	e.Reason = reason
	return s.emitter.Emit(ctx, e)
}

func (s *EmitterSink) LoggedOut(ctx context.Context, identifier string, sessionDuration time.Duration) error {
	e := s.event(EventLoggedOut, identifier)
	e.SessionDurationMs = sessionDuration.Milliseconds()
	return s.emitter.Emit(ctx, e)
}
