// Package auth provides anonymous sessions, operator API keys and the
// HTTP middleware that checks them.
package auth

import "context"

// LocalSession is the session for processes that open the database
// directly. It is always ready.
type LocalSession struct{}

// EnsureSessionReady implements live.Session.
func (LocalSession) EnsureSessionReady(context.Context) error { return nil }

type contextKey struct{}

// Principal identifies the caller of an authenticated request.
type Principal struct {
	UID    string // anonymous uid, empty for API keys
	APIKey bool
}

// WithPrincipal stores the caller on a context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFrom returns the caller stored on ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}
