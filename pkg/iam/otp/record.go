package otp

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

const (
	// CodeLength is the number of digits in every generated code
	CodeLength = 6

	// DefaultTTL is how long a code stays valid after generation
	DefaultTTL = 60 * time.Second

	// DefaultMaxAttempts is the number of guesses allowed per code
	DefaultMaxAttempts = 3

	codeMin = 100000
	codeMax = 999999
)

// Record is the live OTP for one identifier.
type Record struct {
	Code              string
	ExpiresAt         time.Time
	AttemptsRemaining int
}

// IsExpired reports whether now is past the expiry instant.
func (r Record) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// IsExhausted reports whether no guesses are left.
func (r Record) IsExhausted() bool {
	return r.AttemptsRemaining <= 0
}

// RemainingTime is the time left before expiry, never negative.
func (r Record) RemainingTime(now time.Time) time.Duration {
	if d := r.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// CodeGenerator produces a fresh code.
type CodeGenerator func() (string, error)

// GenerateCode draws a code uniformly from [100000, 999999] using crypto/rand.
// The range has no leading zeros, so every code is exactly six characters.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}
