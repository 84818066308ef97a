// Package auth holds the caller identity carried through request contexts
// and the signed session cookie format.
package auth

import "context"

// Identity is an authenticated user as seen by request handlers.
type Identity struct {
	UserID    int64
	Username  string
	IsAdmin   bool
	SessionID string
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx. ok is false for anonymous
// callers.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// IsAdmin reports whether the caller in ctx is an authenticated admin.
func IsAdmin(ctx context.Context) bool {
	id, ok := FromContext(ctx)
	return ok && id.IsAdmin
}

// CanModify reports whether id may change a row owned by ownerID: owners
// always can, admins only when allowAdmin is set.
func (id Identity) CanModify(ownerID int64, allowAdmin bool) bool {
	return id.UserID == ownerID || (allowAdmin && id.IsAdmin)
}
