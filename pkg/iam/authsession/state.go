package authsession

import (
	"fmt"
	"time"

	"github.com/Abraxas-365/otpauth/pkg/kernel"
	"github.com/Abraxas-365/otpauth/pkg/ptrx"
)

// StateKind enumerates the State variants.
type StateKind int

const (
	KindIdle StateKind = iota + 1
	KindLoading
	KindOtpSent
	KindOtpError
	KindAuthenticated
)

func (k StateKind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindLoading:
		return "loading"
	case KindOtpSent:
		return "otp_sent"
	case KindOtpError:
		return "otp_error"
	case KindAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}

// State is the externally observable authentication state. Only the
// Controller produces values of it.
type State interface {
	Kind() StateKind
	isState()
}

// Idle means no flow is in progress.
type Idle struct{}

// Loading means an operation is in flight for Identifier.
type Loading struct {
	Identifier string
}

// OtpSent means a code was issued for Identifier and is valid until ExpiresAt.
type OtpSent struct {
	Identifier string
	ExpiresAt  time.Time
}

// OtpError carries a user-facing message. AttemptsRemaining is only set for
// a wrong guess that still leaves attempts.
type OtpError struct {
	Message           string
	AttemptsRemaining *int
}

// Authenticated is a live session.
type Authenticated struct {
	Identifier       string
	SessionID        kernel.SessionID
	SessionStartedAt time.Time
}

func (Idle) Kind() StateKind          { return KindIdle }
func (Loading) Kind() StateKind       { return KindLoading }
func (OtpSent) Kind() StateKind       { return KindOtpSent }
func (OtpError) Kind() StateKind      { return KindOtpError }
func (Authenticated) Kind() StateKind { return KindAuthenticated }

func (Idle) isState()          {}
func (Loading) isState()       {}
func (OtpSent) isState()       {}
func (OtpError) isState()      {}
func (Authenticated) isState() {}

// User-facing OtpError messages.
const (
	MsgInvalidEmail      = "Invalid email address"
	MsgInvalidCodeLength = "OTP must be 6 digits"
	MsgExpired           = "OTP has expired. Please request a new one."
	MsgAttemptsExhausted = "Maximum attempts exceeded. Please request a new OTP."
	MsgNoOTPFound        = "No OTP found. Please request a new one."
)

// MsgInvalidOTP formats the wrong-guess message.
func MsgInvalidOTP(attemptsRemaining int) string {
	return fmt.Sprintf("Invalid OTP. %d attempts remaining.", attemptsRemaining)
}

// StateView is the flat JSON form of any State.
type StateView struct {
	State             string     `json:"state"`
	Identifier        string     `json:"identifier,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	Message           string     `json:"message,omitempty"`
	AttemptsRemaining *int       `json:"attempts_remaining,omitempty"`
	SessionID         string     `json:"session_id,omitempty"`
	SessionStartedAt  *time.Time `json:"session_started_at,omitempty"`
}

// View flattens s. A nil state is shown as idle.
func View(s State) StateView {
	switch st := s.(type) {
	case nil, Idle:
		return StateView{State: KindIdle.String()}
	case Loading:
		return StateView{State: st.Kind().String(), Identifier: st.Identifier}
	case OtpSent:
		return StateView{State: st.Kind().String(), Identifier: st.Identifier, ExpiresAt: ptrx.Of(st.ExpiresAt)}
	case OtpError:
		return StateView{State: st.Kind().String(), Message: st.Message, AttemptsRemaining: st.AttemptsRemaining}
	case Authenticated:
		return StateView{
			State:            st.Kind().String(),
			Identifier:       st.Identifier,
			SessionID:        st.SessionID.String(),
			SessionStartedAt: ptrx.Of(st.SessionStartedAt),
		}
	default:
		return StateView{State: s.Kind().String()}
	}
}
