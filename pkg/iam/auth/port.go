package auth

import (
	"time"

	"github.com/Abraxas-365/otpauth/pkg/kernel"
)

// TokenService issues and checks session tokens.
type TokenService interface {
	IssueSessionToken(identifier string, sessionID kernel.SessionID) (token string, expiresAt time.Time, err error)
	ValidateSessionToken(token string) (*SessionClaims, error)
}
