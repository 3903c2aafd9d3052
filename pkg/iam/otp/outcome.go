package otp

import "fmt"

// OutcomeKind enumerates the Outcome variants for exhaustive switches.
type OutcomeKind int

const (
	KindSuccess OutcomeKind = iota + 1
	KindNoRecordFound
	KindExpired
	KindAttemptsExhausted
	KindInvalid
)

func (k OutcomeKind) String() string {
	switch k {
	case KindSuccess:
		return "Success"
	case KindNoRecordFound:
		return "NoRecordFound"
	case KindExpired:
		return "Expired"
	case KindAttemptsExhausted:
		return "AttemptsExhausted"
	case KindInvalid:
		return "Invalid"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the result of Store.Validate. The set of implementations is
// closed: Success, NoRecordFound, Expired, AttemptsExhausted and Invalid.
type Outcome interface {
	Kind() OutcomeKind
	isOutcome()
}

// Success means the candidate matched; the record has been evicted.
type Success struct{}

// NoRecordFound means there was no live record for the identifier.
type NoRecordFound struct{}

// Expired means the record outlived its TTL; it has been evicted.
type Expired struct{}

// AttemptsExhausted means no guesses are left; the record has been evicted.
type AttemptsExhausted struct{}

// Invalid means the candidate did not match and AttemptsRemaining guesses are left.
type Invalid struct {
	AttemptsRemaining int
}

func (Success) Kind() OutcomeKind           { return KindSuccess }
func (NoRecordFound) Kind() OutcomeKind     { return KindNoRecordFound }
func (Expired) Kind() OutcomeKind           { return KindExpired }
func (AttemptsExhausted) Kind() OutcomeKind { return KindAttemptsExhausted }
func (Invalid) Kind() OutcomeKind           { return KindInvalid }

func (Success) isOutcome()           {}
func (NoRecordFound) isOutcome()     {}
func (Expired) isOutcome()           {}
func (AttemptsExhausted) isOutcome() {}
func (Invalid) isOutcome()           {}
