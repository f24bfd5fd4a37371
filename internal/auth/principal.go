package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Sentinel errors returned by authentication and authorization checks.
var (
	// ErrUnauthenticated is returned when no valid principal is attached to the request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned when the principal may not access the requested workspace.
	ErrForbidden = errors.New("forbidden")

	// ErrNotMember is wrapped with ErrForbidden when the workspace exists but the
	// principal has no membership in it.
	ErrNotMember = errors.New("not a member of workspace")

	// ErrRoleRequired is wrapped with ErrForbidden when the membership role is insufficient.
	ErrRoleRequired = errors.New("role required")
)

// Principal represents an authenticated caller.
// This is added to the request context after successful token verification.
type Principal struct {
	ID    uuid.UUID
	Email string
}

type contextKey int

const (
	principalContextKey contextKey = iota
)

// WithPrincipal returns a copy of ctx carrying the principal.
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from the request context.
// Returns nil if no principal is present (unauthenticated request).
func PrincipalFromContext(ctx context.Context) *Principal {
	principal, _ := ctx.Value(principalContextKey).(*Principal)
	return principal
}
