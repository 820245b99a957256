package auth

import (
	"context"

	"github.com/google/uuid"
)

// Role names as stored on the users table.
const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// Principal identifies the authenticated account for the lifetime of a
// request. ProfileID is the doctor or patient row linked to the account; it is
// uuid.Nil for admins.
type Principal struct {
	UserID    uuid.UUID
	Role      string
	ProfileID uuid.UUID
}

func (p Principal) IsAdmin() bool   { return p.Role == RoleAdmin }
func (p Principal) IsDoctor() bool  { return p.Role == RoleDoctor }
func (p Principal) IsPatient() bool { return p.Role == RolePatient }

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the authenticated principal from context.
// The second return is false for unauthenticated requests.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
