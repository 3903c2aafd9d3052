package otp

import (
	"net/http"

	"github.com/Abraxas-365/otpauth/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("OTP")

var (
	CodeGenerationFailed = ErrRegistry.Register("CODE_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to generate OTP code")
	CodeUnknownOutcome   = ErrRegistry.Register("UNKNOWN_OUTCOME", errx.TypeInternal, http.StatusInternalServerError, "Unrecognized validation outcome")
)

func ErrGenerationFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeGenerationFailed, cause)
}

func ErrUnknownOutcome(o Outcome) *errx.Error {
	return ErrRegistry.New(CodeUnknownOutcome).WithDetail("outcome", o)
}
