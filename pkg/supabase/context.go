package supabase

import "context"

type sessionKey struct{}

// WithSession attaches a session that was verified elsewhere (for example
// from a bearer token). Queries and auth lookups made with the returned
// context act as that session's user instead of the stored session.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
