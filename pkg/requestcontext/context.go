// Package requestcontext provides context accessors for session-scoped values.
//
// Usage in services (read values):
//
//	sessionID := requestcontext.SessionID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage at the entry point (set values):
//
//	ctx = requestcontext.WithSessionID(ctx, uuid.New())
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Context key types (unexported for encapsulation).
type (
	sessionIDKey   struct{}
	requestTimeKey struct{}
)

// SessionID retrieves the console session ID from the context.
// Returns uuid.Nil if not set.
func SessionID(ctx context.Context) uuid.UUID {
	if sessionID, ok := ctx.Value(sessionIDKey{}).(uuid.UUID); ok {
		return sessionID
	}
	return uuid.Nil
}

// WithSessionID injects a session ID into the context.
func WithSessionID(ctx context.Context, sessionID uuid.UUID) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

// Now returns the time injected with WithTime, or time.Now when none was set.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the clock seen by Now.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
