package auth

import (
	"context"
	"slices"
)

// Identity is the authenticated caller, as carried by the bearer token and
// mirrored by the server-side session.
type Identity struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext returns the identity stored by RequireRoles, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}

// Authorize fails with ErrAccessDenied when id is absent or its role is not
// one of roles.
func Authorize(id *Identity, roles ...string) error {
	if id == nil || !slices.Contains(roles, id.Role) {
		return ErrAccessDenied
	}
	return nil
}
