package access

import (
	"context"

	"github.com/google/uuid"
)

type Role string

const (
	RoleWarehouse  Role = "WAREHOUSE"
	RoleAccounting Role = "ACCOUNTING"
	RoleAdmin      Role = "ADMIN"
	RoleManagement Role = "MANAGEMENT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleWarehouse, RoleAccounting, RoleAdmin, RoleManagement:
		return true
	}
	return false
}

// Actor is the authenticated caller as supplied by the auth boundary.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

type contextKey string

const actorKey contextKey = "actor"

// WithActor sets the caller identity into context (called by middleware)
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFrom retrieves the caller identity safely
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok && a.ID != uuid.Nil
}
