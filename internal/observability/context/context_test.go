package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActorRoundTrip(t *testing.T) {
	ctx := WithActor(context.Background(), " PROFESSIONAL ", "42")
	ctx = WithRequestID(ctx, "req-1")

	role, id := ActorFromContext(ctx)
	assert.Equal(t, "PROFESSIONAL", role)
	assert.Equal(t, "42", id)
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
}

func TestEmptyContext(t *testing.T) {
	role, id := ActorFromContext(context.Background())
	assert.Empty(t, role)
	assert.Empty(t, id)
	assert.Empty(t, RequestIDFromContext(context.Background()))
}
