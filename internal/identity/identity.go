// Package identity resolves the authenticated caller. The user always
// travels explicitly in the request context; nothing in the service reads
// ambient authentication state.
package identity

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// User is the resolved caller. ID is an opaque stable string; the booking
// engine stores it verbatim as the slot holder.
type User struct {
	ID   string
	Name string
}

// Provider turns a bearer credential into a User.
type Provider interface {
	CurrentUser(ctx context.Context, token string) (*User, error)
}

type contextKey struct{}

// WithUser returns a context carrying the resolved user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext retrieves the resolved user, if any.
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(contextKey{}).(*User)
	return u, ok && u != nil
}
