package analytics

import (
	"context"
	"errors"
	"time"
)

// MultiSink fans every call out to all sinks and joins their errors.
type MultiSink []Sink

// Multi combines sinks.
func Multi(sinks ...Sink) MultiSink {
	return MultiSink(sinks)
}

func (m MultiSink) each(fn func(Sink) error) error {
	var errs []error
	for _, s := range m {
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) OTPGenerated(ctx context.Context, identifier, code string) error {
	return m.each(func(s Sink) error { return s.OTPGenerated(ctx, identifier, code) })
}

func (m MultiSink) ValidationSucceeded(ctx context.Context, identifier string) error {
	return m.each(func(s Sink) error { return s.ValidationSucceeded(ctx, identifier) })
}

func (m MultiSink) ValidationFailed(ctx context.Context, identifier, reason string) error {
	return m.each(func(s Sink) error { return s.ValidationFailed(ctx, identifier, reason) })
}

func (m MultiSink) LoggedOut(ctx context.Context, identifier string, sessionDuration time.Duration) error {
	return m.each(func(s Sink) error { return s.LoggedOut(ctx, identifier, sessionDuration) })
}

// Nop discards every event.
type Nop struct{}

func (Nop) OTPGenerated(context.Context, string, string) error     { return nil }
func (Nop) ValidationSucceeded(context.Context, string) error      { return nil }
func (Nop) ValidationFailed(context.Context, string, string) error { return nil }
func (Nop) LoggedOut(context.Context, string, time.Duration) error { return nil }
