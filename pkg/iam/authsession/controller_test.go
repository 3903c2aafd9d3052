package authsession_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/otpauth/pkg/clockx"
	"github.com/Abraxas-365/otpauth/pkg/errx"
	"github.com/Abraxas-365/otpauth/pkg/iam/analytics"
	"github.com/Abraxas-365/otpauth/pkg/iam/authsession"
	"github.com/Abraxas-365/otpauth/pkg/iam/otp"
	"github.com/Abraxas-365/otpauth/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	email = "user@example.com"
	code  = "123456"
)

type sent struct {
	identifier string
	code       string
}

type fixture struct {
	clock    *clockx.Fake
	store    *otp.Store
	recorder *analytics.Recorder
	ctl      *authsession.Controller
	mu       sync.Mutex
	sent     []sent
	observed []authsession.State
}

func newFixture(t *testing.T, opts ...authsession.Option) *fixture {
	t.Helper()

	f := &fixture{clock: clockx.NewFake(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))}
	f.store = otp.NewStore(
		otp.WithClock(f.clock),
		otp.WithCodeGenerator(func() (string, error) { return code, nil }),
	)

	var sink analytics.Sink
	f.recorder, sink = recorderSink()

	delivery := authsession.DeliveryFunc(func(_ context.Context, identifier, code string) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.sent = append(f.sent, sent{identifier, code})
		return nil
	})

	f.ctl = authsession.NewController(f.store, delivery, sink,
		append([]authsession.Option{authsession.WithClock(f.clock)}, opts...)...)
	t.Cleanup(f.ctl.Wait)
	unsubscribe := f.ctl.Subscribe(func(s authsession.State) {
		f.observed = append(f.observed, s)
	})
	t.Cleanup(unsubscribe)
	return f
}

func recorderSink() (*analytics.Recorder, analytics.Sink) {
	r, s := analytics.NewRecorder()
	return r, s
}

func (f *fixture) kinds() []authsession.StateKind {
	out := make([]authsession.StateKind, len(f.observed))
	for i, s := range f.observed {
		out[i] = s.Kind()
	}
	return out
}

// ============================================================================
// SendOTP
// ============================================================================

func TestSendOTP_InvalidEmail(t *testing.T) {
	for _, id := range []string{"", "not-an-email", "user@", "@example.com"} {
		t.Run(fmt.Sprintf("%q", id), func(t *testing.T) {
			f := newFixture(t)

			got := f.ctl.SendOTP(context.Background(), id)
			f.ctl.Wait()

			assert.Equal(t, authsession.OtpError{Message: authsession.MsgInvalidEmail}, got)
			assert.Equal(t, []authsession.StateKind{authsession.KindIdle, authsession.KindOtpError}, f.kinds())
			assert.Zero(t, f.store.Len())
			assert.Empty(t, f.recorder.Events())
			assert.Empty(t, f.sent)
		})
	}
}

func TestSendOTP_IssuesCode(t *testing.T) {
	f := newFixture(t)

	got := f.ctl.SendOTP(context.Background(), email)
	f.ctl.Wait()

	assert.Equal(t, authsession.OtpSent{
		Identifier: email,
		ExpiresAt:  f.clock.Now().Add(otp.DefaultTTL),
	}, got)
	assert.Equal(t, []authsession.StateKind{
		authsession.KindIdle, authsession.KindLoading, authsession.KindOtpSent,
	}, f.kinds())
	assert.Equal(t, authsession.Loading{Identifier: email}, f.observed[1])
	assert.Equal(t, []sent{{email, code}}, f.sent)

	events := f.recorder.Named(analytics.EventOTPGenerated)
	require.Len(t, events, 1)
	assert.Equal(t, email, events[0].Identifier)
	assert.Empty(t, events[0].Code)

	assert.Equal(t, got, f.ctl.CurrentState())
}

func TestSendOTP_IncludeCodeInEvents(t *testing.T) {
	f := newFixture(t, authsession.WithIncludeCodeInEvents(true))

	f.ctl.SendOTP(context.Background(), email)

	events := f.recorder.Named(analytics.EventOTPGenerated)
	require.Len(t, events, 1)
	assert.Equal(t, code, events[0].Code)
}

func TestSendOTP_DeliveryFailureDoesNotChangeTransition(t *testing.T) {
	clock := clockx.NewFake(time.Now())
	store := otp.NewStore(otp.WithClock(clock))
	rec, sink := recorderSink()

	for name, delivery := range map[string]authsession.Delivery{
		"error": authsession.DeliveryFunc(func(context.Context, string, string) error {
			return errors.New("smtp down")
		}),
		"panic": authsession.DeliveryFunc(func(context.Context, string, string) error {
			panic("boom")
		}),
	} {
		t.Run(name, func(t *testing.T) {
			rec.Reset()
			ctl := authsession.NewController(store, delivery, sink, authsession.WithClock(clock))

			got := ctl.SendOTP(context.Background(), email)
			ctl.Wait()

			assert.Equal(t, authsession.KindOtpSent, got.Kind())
			assert.Len(t, rec.Named(analytics.EventOTPGenerated), 1)
			assert.Equal(t, otp.DefaultMaxAttempts, store.RemainingAttempts(email))
		})
	}
}

func TestSendOTP_SlowDeliveryDoesNotHoldController(t *testing.T) {
	clock := clockx.NewFake(time.Now())
	store := otp.NewStore(otp.WithClock(clock), otp.WithCodeGenerator(func() (string, error) { return code, nil }))

	release := make(chan struct{})
	started := make(chan struct{})
	delivery := authsession.DeliveryFunc(func(context.Context, string, string) error {
		close(started)
		<-release
		return nil
	})
	ctl := authsession.NewController(store, delivery, nil, authsession.WithClock(clock))
	ctx := context.Background()

	got := ctl.SendOTP(ctx, email)
	assert.Equal(t, authsession.KindOtpSent, got.Kind())
	<-started

	done := make(chan authsession.State)
	go func() {
		ctl.ValidateOTP(ctx, "other@example.com", "000000")
		done <- ctl.ResetToIdle()
	}()

	select {
	case s := <-done:
		assert.Equal(t, authsession.Idle{}, s)
	case <-time.After(time.Second):
		close(release)
		t.Fatalf("controller blocked behind delivery, state=%s", ctl.CurrentState().Kind())
	}

	close(release)
	ctl.Wait()
}

func TestSendOTP_DeliveryIsBoundedByTimeout(t *testing.T) {
	errs := make(chan error, 1)
	delivery := authsession.DeliveryFunc(func(ctx context.Context, _, _ string) error {
		<-ctx.Done()
		errs <- ctx.Err()
		return ctx.Err()
	})
	ctl := authsession.NewController(otp.NewStore(), delivery, nil,
		authsession.WithDeliveryTimeout(20*time.Millisecond))

	reqCtx, cancel := context.WithCancel(context.Background())
	ctl.SendOTP(reqCtx, email)
	cancel()
	ctl.Wait()

	assert.ErrorIs(t, <-errs, context.DeadlineExceeded)
}

func TestSendOTP_NilCollaborators(t *testing.T) {
	ctl := authsession.NewController(otp.NewStore(), nil, nil)

	assert.Equal(t, authsession.KindOtpSent, ctl.SendOTP(context.Background(), email).Kind())
}

// ============================================================================
// ValidateOTP
// ============================================================================

func TestValidateOTP_WrongLengthSkipsStore(t *testing.T) {
	f := newFixture(t)
	f.ctl.SendOTP(context.Background(), email)
	f.recorder.Reset()

	for _, candidate := range []string{"", "12345", "1234567"} {
		got := f.ctl.ValidateOTP(context.Background(), email, candidate)
		assert.Equal(t, authsession.OtpError{Message: authsession.MsgInvalidCodeLength}, got)
	}

	assert.Equal(t, otp.DefaultMaxAttempts, f.store.RemainingAttempts(email))
	assert.Empty(t, f.recorder.Events())
	assert.NotContains(t, f.kinds()[3:], authsession.KindLoading)
}

func TestValidateOTP_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ctl.SendOTP(ctx, email)
	f.clock.Advance(10 * time.Second)

	got := f.ctl.ValidateOTP(ctx, email, code)

	auth, ok := got.(authsession.Authenticated)
	require.True(t, ok, "got %#v", got)
	assert.Equal(t, email, auth.Identifier)
	assert.Equal(t, f.clock.Now(), auth.SessionStartedAt)
	assert.False(t, auth.SessionID.IsEmpty())

	assert.Equal(t, authsession.KindLoading, f.observed[len(f.observed)-2].Kind())
	assert.Len(t, f.recorder.Named(analytics.EventValidationSucceeded), 1)
	assert.Zero(t, f.store.Len())

	f.clock.Advance(30 * time.Second)
	elapsed, ok := f.ctl.SessionElapsed()
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, elapsed)
}

func TestValidateOTP_WrongGuessesExhaust(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ctl.SendOTP(ctx, email)

	got := f.ctl.ValidateOTP(ctx, email, "000000")
	assert.Equal(t, "Invalid OTP. 2 attempts remaining.", got.(authsession.OtpError).Message)
	assert.Equal(t, 2, *got.(authsession.OtpError).AttemptsRemaining)
	assert.Equal(t, 2, f.ctl.RemainingAttempts(email))

	got = f.ctl.ValidateOTP(ctx, email, "000000")
	assert.Equal(t, "Invalid OTP. 1 attempts remaining.", got.(authsession.OtpError).Message)

	got = f.ctl.ValidateOTP(ctx, email, "000000")
	assert.Equal(t, authsession.OtpError{Message: authsession.MsgAttemptsExhausted}, got)

	got = f.ctl.ValidateOTP(ctx, email, code)
	assert.Equal(t, authsession.OtpError{Message: authsession.MsgNoOTPFound}, got)

	var reasons []string
	for _, e := range f.recorder.Named(analytics.EventValidationFailed) {
		reasons = append(reasons, e.Reason)
	}
	assert.Equal(t, []string{
		analytics.ReasonInvalidOTP,
		analytics.ReasonInvalidOTP,
		analytics.ReasonAttemptsExhausted,
		analytics.ReasonNoOTPFound,
	}, reasons)
	assert.Empty(t, f.recorder.Named(analytics.EventValidationSucceeded))
}

func TestValidateOTP_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ctl.SendOTP(ctx, email)

	f.clock.Advance(otp.DefaultTTL + time.Second)
	remaining, ok := f.ctl.RemainingTime(email)
	assert.True(t, ok)
	assert.Zero(t, remaining)

	got := f.ctl.ValidateOTP(ctx, email, code)

	assert.Equal(t, authsession.OtpError{Message: authsession.MsgExpired}, got)
	failed := f.recorder.Named(analytics.EventValidationFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, analytics.ReasonExpired, failed[0].Reason)

	_, ok = f.ctl.RemainingTime(email)
	assert.False(t, ok)
}

func TestValidateOTP_NoRecord(t *testing.T) {
	f := newFixture(t)

	got := f.ctl.ValidateOTP(context.Background(), email, code)

	assert.Equal(t, authsession.OtpError{Message: authsession.MsgNoOTPFound}, got)
	assert.Len(t, f.recorder.Named(analytics.EventValidationFailed), 1)
}

type bogusOutcome struct{ otp.Success }

type bogusStore struct{ *otp.Store }

func (bogusStore) Validate(string, string) otp.Outcome { return bogusOutcome{} }

func TestValidateOTP_UnknownOutcomePanics(t *testing.T) {
	ctl := authsession.NewController(bogusStore{otp.NewStore()}, nil, nil)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(*errx.Error)
		require.True(t, ok)
		assert.True(t, errx.HasCode(err, otp.CodeUnknownOutcome))
	}()
	ctl.ValidateOTP(context.Background(), email, code)
}

// ============================================================================
// Logout & reset
// ============================================================================

func TestLogout_ReportsSessionDuration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ctl.SendOTP(ctx, email)
	require.Equal(t, authsession.KindAuthenticated, f.ctl.ValidateOTP(ctx, email, code).Kind())

	f.clock.Advance(125 * time.Second)
	got := f.ctl.Logout(ctx)

	assert.Equal(t, authsession.Idle{}, got)
	events := f.recorder.Named(analytics.EventLoggedOut)
	require.Len(t, events, 1)
	assert.Equal(t, email, events[0].Identifier)
	assert.Equal(t, int64(125000), events[0].SessionDurationMs)

	_, ok := f.ctl.SessionElapsed()
	assert.False(t, ok)
}

func TestLogout_FromOtherStatesIsPlainReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, authsession.Idle{}, f.ctl.Logout(ctx))

	f.ctl.SendOTP(ctx, email)
	assert.Equal(t, authsession.Idle{}, f.ctl.Logout(ctx))

	assert.Empty(t, f.recorder.Named(analytics.EventLoggedOut))
}

func TestLogoutSession_OnlyEndsMatchingSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ctl.SendOTP(ctx, email)
	auth := f.ctl.ValidateOTP(ctx, email, code).(authsession.Authenticated)

	got, ok := f.ctl.LogoutSession(ctx, kernel.NewSessionID())
	assert.False(t, ok)
	assert.Equal(t, auth, got)
	assert.Empty(t, f.recorder.Named(analytics.EventLoggedOut))

	f.clock.Advance(5 * time.Second)
	got, ok = f.ctl.LogoutSession(ctx, auth.SessionID)
	assert.True(t, ok)
	assert.Equal(t, authsession.Idle{}, got)
	events := f.recorder.Named(analytics.EventLoggedOut)
	require.Len(t, events, 1)
	assert.Equal(t, int64(5000), events[0].SessionDurationMs)

	_, ok = f.ctl.LogoutSession(ctx, auth.SessionID)
	assert.False(t, ok)
}

func TestCancelFlow_KeepsLiveSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ctl.SendOTP(ctx, email)
	got, ok := f.ctl.CancelFlow()
	assert.True(t, ok)
	assert.Equal(t, authsession.Idle{}, got)

	f.ctl.SendOTP(ctx, email)
	f.ctl.ValidateOTP(ctx, email, code)
	got, ok = f.ctl.CancelFlow()
	assert.False(t, ok)
	assert.Equal(t, authsession.KindAuthenticated, got.Kind())
	assert.Equal(t, authsession.KindAuthenticated, f.ctl.CurrentState().Kind())
}

func TestResetToIdle_NoSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ctl.SendOTP(ctx, email)
	f.recorder.Reset()

	assert.Equal(t, authsession.Idle{}, f.ctl.ResetToIdle())
	assert.Empty(t, f.recorder.Events())
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, authsession.Idle{}, f.ctl.CurrentState())
}

// ============================================================================
// Collaborator isolation
// ============================================================================

type brokenSink struct{}

func (brokenSink) OTPGenerated(context.Context, string, string) error { panic("analytics down") }
func (brokenSink) ValidationSucceeded(context.Context, string) error  { return errors.New("nope") }
func (brokenSink) ValidationFailed(context.Context, string, string) error {
	return errors.New("nope")
}
func (brokenSink) LoggedOut(context.Context, string, time.Duration) error { panic("analytics down") }

func TestBrokenAnalyticsNeverAffectsTransitions(t *testing.T) {
	clock := clockx.NewFake(time.Now())
	store := otp.NewStore(otp.WithClock(clock), otp.WithCodeGenerator(func() (string, error) { return code, nil }))
	ctl := authsession.NewController(store, nil, brokenSink{}, authsession.WithClock(clock))
	ctx := context.Background()

	assert.Equal(t, authsession.KindOtpSent, ctl.SendOTP(ctx, email).Kind())
	assert.Equal(t, authsession.KindOtpError, ctl.ValidateOTP(ctx, email, "000000").Kind())
	assert.Equal(t, authsession.KindAuthenticated, ctl.ValidateOTP(ctx, email, code).Kind())
	assert.Equal(t, authsession.Idle{}, ctl.Logout(ctx))
}

// ============================================================================
// Observation
// ============================================================================

func TestSubscribe_LateSubscriberGetsCurrentState(t *testing.T) {
	f := newFixture(t)
	f.ctl.SendOTP(context.Background(), email)

	var got []authsession.State
	t.Cleanup(f.ctl.Wait)
	unsubscribe := f.ctl.Subscribe(func(s authsession.State) { got = append(got, s) })

	require.Len(t, got, 1)
	assert.Equal(t, authsession.KindOtpSent, got[0].Kind())

	unsubscribe()
	f.ctl.ResetToIdle()
	assert.Len(t, got, 1)
}

func TestConcurrentCallersSeeConsistentOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f.ctl.SendOTP(ctx, fmt.Sprintf("user%d@example.com", i))
		}(i)
	}
	wg.Wait()

	kinds := f.kinds()[1:]
	require.Len(t, kinds, 40)
	for i := 0; i < len(kinds); i += 2 {
		assert.Equal(t, authsession.KindLoading, kinds[i])
		assert.Equal(t, authsession.KindOtpSent, kinds[i+1])
		assert.Equal(t, f.observed[i+1].(authsession.Loading).Identifier, f.observed[i+2].(authsession.OtpSent).Identifier)
	}
	assert.Equal(t, 20, f.store.Len())
}
