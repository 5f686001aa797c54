package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type contextKey string

const sessionIDKey contextKey = "session_id"

// SessionHeader carries the session ID on outgoing backend requests.
const SessionHeader = "X-Session-ID"

// NewTraceID generates a random 16 hex char ID for callers without a session.
func NewTraceID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// WithSessionID attaches a session ID to ctx.
// If id is empty, a trace ID is generated.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewTraceID()
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext returns the session ID in ctx, or "".
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}
