// Package clockx provides a tiny time abstraction.
//
// Expiry and session-duration logic reads time only through Clock so tests can
// move time forward deterministically with Fake instead of sleeping.
package clockx
