package analyticsinfra_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/otpauth/pkg/errx"
	"github.com/Abraxas-365/otpauth/pkg/iam/analytics"
	"github.com/Abraxas-365/otpauth/pkg/iam/analytics/analyticsinfra"
	"github.com/Abraxas-365/otpauth/pkg/logx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	calls []*redis.XAddArgs
	err   error
}

func (f *fakeStream) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.calls = append(f.calls, a)
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	return redis.NewStringResult("1700000000000-0", nil)
}

func TestRedisStreamSink_AddsEvents(t *testing.T) {
	rdb := &fakeStream{}
	sink := analyticsinfra.NewRedisStreamSink(rdb, "auth:events", 1000)
	ctx := context.Background()

	require.NoError(t, sink.ValidationFailed(ctx, "a@b.com", analytics.ReasonAttemptsExhausted))
	require.NoError(t, sink.LoggedOut(ctx, "a@b.com", 2*time.Second))

	require.Len(t, rdb.calls, 2)

	first := rdb.calls[0]
	assert.Equal(t, "auth:events", first.Stream)
	assert.EqualValues(t, 1000, first.MaxLen)
	assert.True(t, first.Approx)
	values := first.Values.(map[string]any)
	assert.Equal(t, string(analytics.EventValidationFailed), values["name"])
	assert.Equal(t, analytics.ReasonAttemptsExhausted, values["reason"])
	assert.NotContains(t, values, "code")

	assert.Equal(t, "2000", rdb.calls[1].Values.(map[string]any)["session_duration_ms"])
}

func TestRedisStreamSink_WrapsFailures(t *testing.T) {
	rdb := &fakeStream{err: errors.New("connection refused")}
	sink := analyticsinfra.NewRedisStreamSink(rdb, "", 0)

	err := sink.ValidationSucceeded(context.Background(), "a@b.com")
	require.Error(t, err)
	assert.True(t, errx.HasCode(err, analyticsinfra.ErrPublishFailed))
	assert.Equal(t, "otpauth:analytics", rdb.calls[0].Stream)
	assert.Zero(t, rdb.calls[0].MaxLen)
}

func TestLogxSink_WritesAuditLines(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := logx.DefaultConfig()
	cfg.Format = logx.FormatJSON
	cfg.Output = buf
	sink := analyticsinfra.NewLogxSink(logx.NewLogger(cfg))
	ctx := context.Background()

	require.NoError(t, sink.OTPGenerated(ctx, "a@b.com", ""))
	require.NoError(t, sink.LoggedOut(ctx, "a@b.com", 125*time.Second))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var generated, logout map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &generated))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &logout))

	assert.Equal(t, string(analytics.EventOTPGenerated), generated["audit_event"])
	assert.NotContains(t, generated, "code")
	assert.EqualValues(t, 125000, logout["session_duration_ms"])
}
