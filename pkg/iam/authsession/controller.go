package authsession

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Abraxas-365/otpauth/pkg/asyncx"
	"github.com/Abraxas-365/otpauth/pkg/clockx"
	"github.com/Abraxas-365/otpauth/pkg/errx"
	"github.com/Abraxas-365/otpauth/pkg/iam/analytics"
	"github.com/Abraxas-365/otpauth/pkg/iam/otp"
	"github.com/Abraxas-365/otpauth/pkg/kernel"
	"github.com/Abraxas-365/otpauth/pkg/logx"
	"github.com/Abraxas-365/otpauth/pkg/ptrx"
	"github.com/go-playground/validator/v10"
)

// OTPStore is the part of *otp.Store the controller drives.
type OTPStore interface {
	Generate(identifier string) string
	Validate(identifier, candidate string) otp.Outcome
	RemainingTime(identifier string) (time.Duration, bool)
	RemainingAttempts(identifier string) int
	ExpiresAt(identifier string) (time.Time, bool)
}

// DefaultDeliveryTimeout bounds one DeliverOTP call.
const DefaultDeliveryTimeout = 10 * time.Second

// Controller owns the authentication State. Operations are serialized and
// every transition is published to subscribers before the operation returns.
// Code delivery runs on its own goroutine, outside the operation lock.
type Controller struct {
	mu sync.Mutex

	store           OTPStore
	delivery        Delivery
	deliveryTimeout time.Duration
	deliveries      asyncx.Group
	sink            analytics.Sink
	clock           clockx.Clock
	validate        *validator.Validate
	includeCode     bool

	state *Subject
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the time source used for session timestamps.
func WithClock(c clockx.Clock) Option {
	return func(ctl *Controller) {
		if c != nil {
			ctl.clock = c
		}
	}
}

// WithIncludeCodeInEvents makes OTPGenerated events carry the code.
func WithIncludeCodeInEvents(include bool) Option {
	return func(ctl *Controller) {
		ctl.includeCode = include
	}
}

// WithDeliveryTimeout bounds each delivery attempt.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(ctl *Controller) {
		if d > 0 {
			ctl.deliveryTimeout = d
		}
	}
}

// NewController starts in Idle. A nil delivery drops codes and a nil sink
// drops events. The sink is always guarded.
func NewController(store OTPStore, delivery Delivery, sink analytics.Sink, opts ...Option) *Controller {
	if delivery == nil {
		delivery = NopDelivery{}
	}
	ctl := &Controller{
		store:           store,
		delivery:        delivery,
		deliveryTimeout: DefaultDeliveryTimeout,
		sink:            analytics.Guard(sink),
		clock:           clockx.New(),
		validate:        validator.New(),
		state:           NewSubject(Idle{}),
	}
	for _, o := range opts {
		o(ctl)
	}
	return ctl
}

// ============================================================================
// Operations
// ============================================================================

// SendOTP issues a code for identifier and schedules its delivery. It
// returns OtpSent without waiting for the delivery port.
func (c *Controller) SendOTP(ctx context.Context, identifier string) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.validate.Var(identifier, "required,email"); err != nil {
		return c.transition(OtpError{Message: MsgInvalidEmail})
	}

	c.transition(Loading{Identifier: identifier})

	code := c.store.Generate(identifier)
	c.deliver(ctx, identifier, code)

	eventCode := ""
	if c.includeCode {
		eventCode = code
	}
	_ = c.sink.OTPGenerated(ctx, identifier, eventCode)

	expiresAt, ok := c.store.ExpiresAt(identifier)
	if !ok {
		expiresAt = c.clock.Now()
	}

	logEntry(ctx, logx.Fields{
		"identifier": identifier,
		"expires_at": expiresAt,
	}).Info("OTP sent")

	return c.transition(OtpSent{Identifier: identifier, ExpiresAt: expiresAt})
}

// Wait blocks until every scheduled delivery has returned.
func (c *Controller) Wait() {
	c.deliveries.Wait()
}

func (c *Controller) deliver(ctx context.Context, identifier, code string) {
	ctx = context.WithoutCancel(ctx)
	timeout := c.deliveryTimeout

	c.deliveries.Go(func() {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := asyncx.Safe(func() error { return c.delivery.DeliverOTP(ctx, identifier, code) }); err != nil {
			logEntry(ctx, logx.Fields{"identifier": identifier}).
				WithError(errx.Wrap(err, "otp delivery failed", errx.TypeExternal)).
				Warn("Failed to deliver OTP")
		}
	})
}

// ValidateOTP checks candidate and maps the store outcome to the next state.
func (c *Controller) ValidateOTP(ctx context.Context, identifier, candidate string) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if utf8.RuneCountInString(candidate) != otp.CodeLength {
		return c.transition(OtpError{Message: MsgInvalidCodeLength})
	}

	c.transition(Loading{Identifier: identifier})

	switch o := c.store.Validate(identifier, candidate).(type) {
	case otp.Success:
		next := Authenticated{
			Identifier:       identifier,
			SessionID:        kernel.NewSessionID(),
			SessionStartedAt: c.clock.Now(),
		}
		_ = c.sink.ValidationSucceeded(ctx, identifier)
		logEntry(ctx, logx.Fields{
			"identifier": identifier,
			"session_id": next.SessionID,
		}).Info("OTP validated, session started")
		return c.transition(next)

	case otp.Invalid:
		_ = c.sink.ValidationFailed(ctx, identifier, analytics.ReasonInvalidOTP)
		return c.fail(ctx, identifier, OtpError{
			Message:           MsgInvalidOTP(o.AttemptsRemaining),
			AttemptsRemaining: ptrx.Int(o.AttemptsRemaining),
		})

	case otp.Expired:
		_ = c.sink.ValidationFailed(ctx, identifier, analytics.ReasonExpired)
		return c.fail(ctx, identifier, OtpError{Message: MsgExpired})

	case otp.AttemptsExhausted:
		_ = c.sink.ValidationFailed(ctx, identifier, analytics.ReasonAttemptsExhausted)
		return c.fail(ctx, identifier, OtpError{Message: MsgAttemptsExhausted})

	case otp.NoRecordFound:
		_ = c.sink.ValidationFailed(ctx, identifier, analytics.ReasonNoOTPFound)
		return c.fail(ctx, identifier, OtpError{Message: MsgNoOTPFound})

	default:
		panic(otp.ErrUnknownOutcome(o))
	}
}

// Logout ends the live session, reporting its duration. From any other
// state it just returns to Idle.
func (c *Controller) Logout(ctx context.Context) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.logout(ctx)
}

// LogoutSession is Logout restricted to the live session sessionID.
// Otherwise nothing changes and ok is false.
func (c *Controller) LogoutSession(ctx context.Context, sessionID kernel.SessionID) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.state.Value()
	if s, ok := current.(Authenticated); !ok || s.SessionID != sessionID {
		return current, false
	}
	return c.logout(ctx), true
}

// ResetToIdle returns to Idle without side effects.
func (c *Controller) ResetToIdle() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.transition(Idle{})
}

// CancelFlow is ResetToIdle unless a session is live, in which case nothing
// changes and ok is false.
func (c *Controller) CancelFlow() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.state.Value()
	if current.Kind() == KindAuthenticated {
		return current, false
	}
	return c.transition(Idle{}), true
}

// ============================================================================
// Observation
// ============================================================================

// CurrentState returns the latest state.
func (c *Controller) CurrentState() State {
	return c.state.Value()
}

// Subscribe registers fn for every transition and replays the current state
// to it. fn must not call back into the controller.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	return c.state.Subscribe(fn)
}

// RemainingTime is the countdown for identifier's code, floored at zero.
func (c *Controller) RemainingTime(identifier string) (time.Duration, bool) {
	return c.store.RemainingTime(identifier)
}

// RemainingAttempts is the number of guesses left for identifier's code.
func (c *Controller) RemainingAttempts(identifier string) int {
	return c.store.RemainingAttempts(identifier)
}

// SessionElapsed is the age of the live session. ok is false when not
// authenticated.
func (c *Controller) SessionElapsed() (elapsed time.Duration, ok bool) {
	s, ok := c.state.Value().(Authenticated)
	if !ok {
		return 0, false
	}
	return c.clock.Now().Sub(s.SessionStartedAt), true
}

// ============================================================================
// Helpers
// ============================================================================

func (c *Controller) transition(next State) State {
	c.state.Publish(next)
	return next
}

func (c *Controller) logout(ctx context.Context) State {
	if s, ok := c.state.Value().(Authenticated); ok {
		duration := c.clock.Now().Sub(s.SessionStartedAt)
		_ = c.sink.LoggedOut(ctx, s.Identifier, duration)
		logEntry(ctx, logx.Fields{
			"identifier":          s.Identifier,
			"session_id":          s.SessionID,
			"session_duration_ms": duration.Milliseconds(),
		}).Info("Session ended")
	}

	return c.transition(Idle{})
}

func (c *Controller) fail(ctx context.Context, identifier string, next OtpError) State {
	logEntry(ctx, logx.Fields{
		"identifier": identifier,
		"reason":     next.Message,
	}).Debug("OTP validation failed")
	return c.transition(next)
}

func logEntry(ctx context.Context, fields logx.Fields) *logx.Entry {
	if id := kernel.RequestIDFrom(ctx); id != "" {
		fields["request_id"] = id
	}
	return logx.WithFields(fields)
}
