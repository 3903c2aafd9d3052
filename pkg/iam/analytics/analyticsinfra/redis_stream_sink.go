package analyticsinfra

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Abraxas-365/otpauth/pkg/errx"
	"github.com/Abraxas-365/otpauth/pkg/iam/analytics"
	"github.com/redis/go-redis/v9"
)

var redisErrors = errx.NewRegistry("ANALYTICS_REDIS")

var ErrPublishFailed = redisErrors.Register("PUBLISH_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to publish analytics event")

// StreamAdder is the slice of *redis.Client the stream sink needs.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamEmitter appends every event to a capped Redis stream.
type RedisStreamEmitter struct {
	rdb    StreamAdder
	stream string
	maxLen int64
}

// NewRedisStreamEmitter writes to stream, trimming it to roughly maxLen entries
// (0 disables trimming).
func NewRedisStreamEmitter(rdb StreamAdder, stream string, maxLen int64) *RedisStreamEmitter {
	if stream == "" {
		stream = "otpauth:analytics"
	}
	return &RedisStreamEmitter{rdb: rdb, stream: stream, maxLen: maxLen}
}

// NewRedisStreamSink is the analytics.Sink over NewRedisStreamEmitter.
func NewRedisStreamSink(rdb StreamAdder, stream string, maxLen int64) *analytics.EmitterSink {
	return analytics.FromEmitter(NewRedisStreamEmitter(rdb, stream, maxLen), nil)
}

// Emit implements analytics.Emitter with XADD.
func (r *RedisStreamEmitter) Emit(ctx context.Context, e analytics.Event) error {
	values := map[string]any{
		"id":          e.ID.String(),
		"name":        string(e.Name),
		"identifier":  e.Identifier,
		"occurred_at": e.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if e.Code != "" {
		values["code"] = e.Code
	}
	if e.Reason != "" {
		values["reason"] = e.Reason
	}
	if e.Name == analytics.EventLoggedOut {
		values["session_duration_ms"] = strconv.FormatInt(e.SessionDurationMs, 10)
	}

	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: values,
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}

	if err := r.rdb.XAdd(ctx, args).Err(); err != nil {
		return redisErrors.NewWithCause(ErrPublishFailed, err).
			WithDetail("stream", r.stream).
			WithDetail("event", e.Name)
	}
	return nil
}
