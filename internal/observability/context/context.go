package context

import (
	"context"
	"strings"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	actorRoleKey ctxKey = "actor_role"
	actorIDKey   ctxKey = "actor_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// WithActor records the authenticated caller for log correlation.
func WithActor(ctx context.Context, role, id string) context.Context {
	ctx = context.WithValue(ctx, actorRoleKey, strings.TrimSpace(role))
	return context.WithValue(ctx, actorIDKey, strings.TrimSpace(id))
}

func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	role, _ := ctx.Value(actorRoleKey).(string)
	id, _ := ctx.Value(actorIDKey).(string)
	return role, id
}
