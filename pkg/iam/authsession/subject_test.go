package authsession_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Abraxas-365/otpauth/pkg/iam/authsession"
	"github.com/Abraxas-365/otpauth/pkg/kernel"
	"github.com/Abraxas-365/otpauth/pkg/ptrx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject_ReplayAndOrder(t *testing.T) {
	s := authsession.NewSubject(authsession.Idle{})

	var a, b []authsession.StateKind
	unsubA := s.Subscribe(func(st authsession.State) { a = append(a, st.Kind()) })
	s.Publish(authsession.Loading{Identifier: "x@y.z"})
	unsubB := s.Subscribe(func(st authsession.State) { b = append(b, st.Kind()) })
	s.Publish(authsession.OtpError{Message: "m"})

	assert.Equal(t, []authsession.StateKind{authsession.KindIdle, authsession.KindLoading, authsession.KindOtpError}, a)
	assert.Equal(t, []authsession.StateKind{authsession.KindLoading, authsession.KindOtpError}, b)
	assert.Equal(t, 2, s.Len())

	unsubA()
	unsubA()
	s.Publish(authsession.Idle{})
	assert.Len(t, a, 3)
	assert.Len(t, b, 3)
	assert.Equal(t, 1, s.Len())

	unsubB()
	assert.Zero(t, s.Len())
	assert.Equal(t, authsession.Idle{}, s.Value())
}

func TestSubject_UnsubscribeFromCallback(t *testing.T) {
	s := authsession.NewSubject(authsession.Idle{})

	calls := 0
	var unsub func()
	unsub = s.Subscribe(func(authsession.State) {
		calls++
		if calls == 2 {
			unsub()
		}
	})
	s.Publish(authsession.Idle{})
	s.Publish(authsession.Idle{})

	assert.Equal(t, 2, calls)
}

func TestView(t *testing.T) {
	expires := time.Date(2024, 1, 1, 12, 1, 0, 0, time.UTC)

	tests := []struct {
		name  string
		state authsession.State
		want  string
	}{
		{"idle", authsession.Idle{}, `{"state":"idle"}`},
		{"nil", nil, `{"state":"idle"}`},
		{"loading", authsession.Loading{Identifier: "a@b.c"}, `{"state":"loading","identifier":"a@b.c"}`},
		{"sent", authsession.OtpSent{Identifier: "a@b.c", ExpiresAt: expires},
			`{"state":"otp_sent","identifier":"a@b.c","expires_at":"2024-01-01T12:01:00Z"}`},
		{"error", authsession.OtpError{Message: authsession.MsgInvalidOTP(2), AttemptsRemaining: ptrx.Int(2)},
			`{"state":"otp_error","message":"Invalid OTP. 2 attempts remaining.","attempts_remaining":2}`},
		{"authenticated", authsession.Authenticated{Identifier: "a@b.c", SessionID: kernel.SessionID("s1"), SessionStartedAt: expires},
			`{"state":"authenticated","identifier":"a@b.c","session_id":"s1","session_started_at":"2024-01-01T12:01:00Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(authsession.View(tt.state))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}
