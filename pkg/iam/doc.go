// Package iam groups the passwordless sign-in flow.
//
//   - iam/otp                    one-time code store: generation, expiry, bounded guesses
//   - iam/authsession            the authentication state machine and its observers
//   - iam/authsession/authsessionhttp  Fiber routes over one controller
//   - iam/analytics              event sink port, guards and fan-out
//   - iam/analytics/analyticsinfra  logx and Redis stream sinks
//   - iam/auth                   JWT session tokens and the Bearer middleware
//
// Flow:
//
//	POST /auth/otp/send      → Controller.SendOTP     → Store.Generate → Delivery
//	POST /auth/otp/validate  → Controller.ValidateOTP → Store.Validate → Authenticated + token
//	POST /auth/logout        → Controller.Logout      → LoggedOut(duration)
//
// Nothing is persisted: a restart loses every code and session.
package iam
