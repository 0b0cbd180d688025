package common

import (
	"context"
	"time"
)

// Session is the signed-in owner of a request. It is resolved from the
// bearer token once per request and passed down explicitly; services take
// the owner ID as an argument rather than reading ambient state.
type Session struct {
	UserID string
	Email  string
	Name   string

	// TokenID and ExpiresAt identify the bearer token, for revocation.
	TokenID   string
	ExpiresAt time.Time
}

type contextKey int

const sessionKey contextKey = iota

// WithSession stores a Session in the request context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext retrieves the Session from context, or nil if absent.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

// ResolveUserID returns the session's user ID, or "" when no user is signed in.
func ResolveUserID(ctx context.Context) string {
	if s := SessionFromContext(ctx); s != nil {
		return s.UserID
	}
	return ""
}
