// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware and CLI entry points set values; services read them:
//
//	actor := requestcontext.Actor(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject fixed values:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithActor(ctx, audit.ActorHuman, "admin-1")
package requestcontext

import (
	"context"
	"time"

	"squadlink/pkg/platform/audit"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	actorKey       struct{}
)

var (
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyActor       = actorKey{}
)

// ActorInfo identifies who caused a state change.
type ActorInfo struct {
	Type audit.ActorType
	ID   string
}

// systemActor is used when nothing upstream identified the caller.
var systemActor = ActorInfo{Type: audit.ActorSystem, ID: "squadlink"}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}

// Actor returns the actor recorded on ctx, defaulting to the system actor.
func Actor(ctx context.Context) ActorInfo {
	if actor, ok := ctx.Value(ContextKeyActor).(ActorInfo); ok && actor.ID != "" {
		return actor
	}
	return systemActor
}

// WithActor records the actor responsible for mutations made with ctx.
func WithActor(ctx context.Context, actorType audit.ActorType, actorID string) context.Context {
	return context.WithValue(ctx, ContextKeyActor, ActorInfo{Type: actorType, ID: actorID})
}
