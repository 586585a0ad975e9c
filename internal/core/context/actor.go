// Package appctx carries request-scoped identity and tracing values.
package appctx

import (
	"context"
)

// Actor identifies who performs a posting. Attached to every stock
// transaction and audit entry for the audit trail.
type Actor struct {
	// UserID is the caller-supplied actor identity (string id)
	UserID string

	// Name is an optional display name
	Name string
}

type actorKey struct{}

// WithActor stores actor identity in context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor returns actor from context, or nil.
func GetActor(ctx context.Context) *Actor {
	if a, ok := ctx.Value(actorKey{}).(*Actor); ok {
		return a
	}
	return nil
}

// ActorID returns the actor's user id, or "system" when no actor is attached
// (background maintenance, seeds).
func ActorID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil && a.UserID != "" {
		return a.UserID
	}
	return "system"
}
