package analytics

import (
	"context"
	"time"

	"github.com/Abraxas-365/otpauth/pkg/asyncx"
)

// AsyncSink dispatches every call on its own goroutine so slow sinks
// (network, disk) never hold up a state transition. The inner sink is
// guarded, and the caller's context is detached from cancellation.
type AsyncSink struct {
	inner Sink
	group asyncx.Group
}

// Async wraps s for off-path delivery.
func Async(s Sink) *AsyncSink {
	return &AsyncSink{inner: Guard(s)}
}

// Wait blocks until every dispatched event has been handled.
func (a *AsyncSink) Wait() {
	a.group.Wait()
}

func (a *AsyncSink) OTPGenerated(ctx context.Context, identifier, code string) error {
	ctx = context.WithoutCancel(ctx)
	a.group.Go(func() { _ = a.inner.OTPGenerated(ctx, identifier, code) })
	return nil
}

func (a *AsyncSink) ValidationSucceeded(ctx context.Context, identifier string) error {
	ctx = context.WithoutCancel(ctx)
	a.group.Go(func() { _ = a.inner.ValidationSucceeded(ctx, identifier) })
	return nil
}

func (a *AsyncSink) ValidationFailed(ctx context.Context, identifier, reason string) error {
	ctx = context.WithoutCancel(ctx)
	a.group.Go(func() { _ = a.inner.ValidationFailed(ctx, identifier, reason) })
	return nil
}

func (a *AsyncSink) LoggedOut(ctx context.Context, identifier string, sessionDuration time.Duration) error {
	ctx = context.WithoutCancel(ctx)
	a.group.Go(func() { _ = a.inner.LoggedOut(ctx, identifier, sessionDuration) })
	return nil
}
