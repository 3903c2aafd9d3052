package asyncx

import (
	"context"
	"fmt"
	"sync"

	"github.com/Abraxas-365/otpauth/pkg/logx"
)

// ─── Fire and forget ──────────────────────────────────────────────────────────

// Do fires fn in a goroutine and forgets it. A panic inside fn is recovered
// and logged instead of crashing the process.
func Do(fn func()) {
	go func() {
		defer Recover("asyncx.Do")
		fn()
	}()
}

// DoCtx fires fn in a goroutine only if ctx is not already done.
func DoCtx(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer Recover("asyncx.DoCtx")
		select {
		case <-ctx.Done():
			return
		default:
			fn(ctx)
		}
	}()
}

// Recover logs a recovered panic under the given scope. Use it deferred.
func Recover(scope string) {
	if r := recover(); r != nil {
		logx.WithFields(logx.Fields{
			"scope": scope,
			"panic": fmt.Sprint(r),
		}).Error("asyncx: recovered panic")
	}
}

// Safe runs fn and converts a panic into an error.
func Safe(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// ─── Group ────────────────────────────────────────────────────────────────────

// Group tracks fire-and-forget goroutines so callers can drain them on shutdown.
type Group struct {
	wg sync.WaitGroup
}

// Go runs fn in a tracked goroutine with panic recovery.
func (g *Group) Go(fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer Recover("asyncx.Group")
		fn()
	}()
}

// Wait blocks until every tracked goroutine has returned.
func (g *Group) Wait() {
	g.wg.Wait()
}
