package auth

import (
	"context"

	"campusevents/internal/model"
)

// Identity is the authenticated caller of a request. It is passed
// explicitly into service operations rather than read from any global
// session state.
type Identity struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the identity holds the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == model.RoleAdmin
}

type contextKey struct{}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the identity set by the Authenticate middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
