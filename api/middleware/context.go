package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/itqan-platform/itqan-backend/pkg/enums"
)

// Principal is the authenticated caller behind a request.
type Principal struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IsAdmin reports whether the caller may use /admin routes.
func (p Principal) IsAdmin() bool {
	return p.Role == enums.UserRoleAdmin
}

type principalKey struct{}

// WithPrincipal stores p on ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller set by Auth. ok is false on
// unauthenticated routes.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.UserID == uuid.Nil {
		return Principal{}, false
	}
	return p, true
}
