package otp

import (
	"sync"
	"time"

	"github.com/Abraxas-365/otpauth/pkg/clockx"
)

// Store is the sole owner of identifier → Record. Every read-modify-write
// happens under one mutex, so Generate and Validate for the same identifier
// never interleave.
type Store struct {
	mu      sync.Mutex
	records map[string]Record

	ttl         time.Duration
	maxAttempts int
	clock       clockx.Clock
	generate    CodeGenerator
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets how long a generated code stays valid.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithMaxAttempts sets the number of guesses allowed per code.
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithClock replaces the time source.
func WithClock(c clockx.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithCodeGenerator replaces the code source.
func WithCodeGenerator(g CodeGenerator) Option {
	return func(s *Store) {
		if g != nil {
			s.generate = g
		}
	}
}

// NewStore creates an empty store with a 60s TTL and 3 attempts per code.
func NewStore(opts ...Option) *Store {
	s := &Store{
		records:     make(map[string]Record),
		ttl:         DefaultTTL,
		maxAttempts: DefaultMaxAttempts,
		clock:       clockx.New(),
		generate:    GenerateCode,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TTL returns the configured code lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// MaxAttempts returns the configured number of guesses per code.
func (s *Store) MaxAttempts() int { return s.maxAttempts }

// Generate replaces any record for identifier with a fresh one and returns
// its code. The returned code is the only way a code leaves the store.
// A broken entropy source is a defect and panics.
func (s *Store) Generate(identifier string) string {
	code, err := s.generate()
	if err != nil {
		panic(ErrGenerationFailed(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[identifier] = Record{
		Code:              code,
		ExpiresAt:         s.clock.Now().Add(s.ttl),
		AttemptsRemaining: s.maxAttempts,
	}
	return code
}

// Validate checks candidate against the record for identifier.
// Checks run in order and the first match wins: missing record, expiry,
// exhaustion, match, mismatch. A mismatch that spends the last guess evicts
// the record and reports AttemptsExhausted.
func (s *Store) Validate(identifier, candidate string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identifier]
	if !ok {
		return NoRecordFound{}
	}

	if rec.IsExpired(s.clock.Now()) {
		delete(s.records, identifier)
		return Expired{}
	}

	if rec.IsExhausted() {
		delete(s.records, identifier)
		return AttemptsExhausted{}
	}

	if candidate == rec.Code {
		delete(s.records, identifier)
		return Success{}
	}

	rec.AttemptsRemaining--
	if rec.IsExhausted() {
		delete(s.records, identifier)
		return AttemptsExhausted{}
	}

	s.records[identifier] = rec
	return Invalid{AttemptsRemaining: rec.AttemptsRemaining}
}

// RemainingTime returns the time left on identifier's code, floored at zero.
// ok is false when there is no record.
func (s *Store) RemainingTime(identifier string) (remaining time.Duration, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identifier]
	if !ok {
		return 0, false
	}
	return rec.RemainingTime(s.clock.Now()), true
}

// RemainingAttempts returns the guesses left on identifier's code, 0 if none.
func (s *Store) RemainingAttempts(identifier string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.records[identifier].AttemptsRemaining
}

// ExpiresAt returns the expiry instant of identifier's code.
func (s *Store) ExpiresAt(identifier string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identifier]
	return rec.ExpiresAt, ok
}

// Len returns the number of records currently held, stale ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Purge evicts every expired or exhausted record and returns how many went.
func (s *Store) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	purged := 0
	for id, rec := range s.records {
		if rec.IsExpired(now) || rec.IsExhausted() {
			delete(s.records, id)
			purged++
		}
	}
	return purged
}
