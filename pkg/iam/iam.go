package iam

import (
	"net/http"

	"github.com/Abraxas-365/otpauth/pkg/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("IAM")

var (
	CodeUnauthorized   = ErrRegistry.Register("UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "Unauthorized")
	CodeInvalidToken   = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or expired token")
	CodeInvalidRequest = ErrRegistry.Register("INVALID_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid request body")
	CodeSessionNotLive = ErrRegistry.Register("SESSION_NOT_LIVE", errx.TypeAuthorization, http.StatusConflict, "Token does not belong to the live session")
	CodeSessionActive  = ErrRegistry.Register("SESSION_ACTIVE", errx.TypeBusiness, http.StatusConflict, "A session is live; log out instead")
)

// Helper functions
func ErrUnauthorized() *errx.Error {
	return ErrRegistry.New(CodeUnauthorized)
}

func ErrInvalidToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidToken)
}

func ErrInvalidRequest() *errx.Error {
	return ErrRegistry.New(CodeInvalidRequest)
}

func ErrSessionNotLive() *errx.Error {
	return ErrRegistry.New(CodeSessionNotLive)
}

func ErrSessionActive() *errx.Error {
	return ErrRegistry.New(CodeSessionActive)
}
