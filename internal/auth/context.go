package auth

import "context"

type sessionCtxKey struct{}

// WithSession returns a context carrying the resolved session identity.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, sess)
}

// FromContext returns the session bound to the request, or nil when the
// caller is anonymous.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionCtxKey{}).(*Session)
	return sess
}
