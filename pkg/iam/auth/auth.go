package auth

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/otpauth/pkg/errx"
	"github.com/Abraxas-365/otpauth/pkg/kernel"
)

// SessionClaims is what a validated session token carries.
type SessionClaims struct {
	SessionID  kernel.SessionID `json:"session_id"`
	Identifier string           `json:"identifier"`
	IssuedAt   time.Time        `json:"iat"`
	ExpiresAt  time.Time        `json:"exp"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeTokenGenerationFailed = ErrRegistry.Register("TOKEN_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to generate session token")
	CodeTokenValidationFailed = ErrRegistry.Register("TOKEN_VALIDATION_FAILED", errx.TypeAuthorization, http.StatusUnauthorized, "Session token validation failed")
)

func ErrTokenGenerationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenGenerationFailed)
}

func ErrTokenValidationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenValidationFailed)
}
