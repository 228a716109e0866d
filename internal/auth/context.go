package auth

import (
	"context"
	"strconv"
)

type contextKey struct{}

// SessionContext identifies the authenticated session behind a request.
type SessionContext struct {
	SessionID int64
	Token     string
}

// Key is the per-session key used to look up in-memory state.
func (sc SessionContext) Key() string {
	return strconv.FormatInt(sc.SessionID, 10)
}

func WithSession(ctx context.Context, sc SessionContext) context.Context {
	return context.WithValue(ctx, contextKey{}, sc)
}

func FromContext(ctx context.Context) (SessionContext, bool) {
	sc, ok := ctx.Value(contextKey{}).(SessionContext)
	return sc, ok
}
