package kernel

import "context"

// SessionContext is what the HTTP layer injects after verifying a session token
type SessionContext struct {
	SessionID  SessionID `json:"session_id"`
	Identifier string    `json:"identifier"`
}

type ContextKey string

const (
	// SessionContextKey stores a *SessionContext in fiber locals and context.Context
	SessionContextKey ContextKey = "session_context"

	// RequestIDKey stores the request id
	RequestIDKey ContextKey = "request_id"
)

// WithSession returns a copy of ctx carrying sc
func WithSession(ctx context.Context, sc *SessionContext) context.Context {
	return context.WithValue(ctx, SessionContextKey, sc)
}

// SessionFrom extracts the session context, if any
func SessionFrom(ctx context.Context) (*SessionContext, bool) {
	sc, ok := ctx.Value(SessionContextKey).(*SessionContext)
	return sc, ok && sc != nil
}

// WithRequestID returns a copy of ctx carrying the request id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestIDFrom returns the request id, or "" if none
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
