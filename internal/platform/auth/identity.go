package auth

import (
	"context"

	"github.com/google/uuid"
)

// User is the authenticated caller.
type User struct {
	ID    uuid.UUID
	Email string
	Role  string
}

type userContextKey struct{}

// WithUser returns a child context carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userContextKey{}).(User)
	return u, ok
}

// ContextIdentity resolves the current user from the request context
// populated by the auth middleware.
type ContextIdentity struct{}

// NewContextIdentity creates a ContextIdentity.
func NewContextIdentity() ContextIdentity { return ContextIdentity{} }

// CurrentUser returns the authenticated user, or false for anonymous callers.
func (ContextIdentity) CurrentUser(ctx context.Context) (User, bool) {
	return UserFromContext(ctx)
}
