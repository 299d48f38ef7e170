package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
}

func TestWithRequestIDEmpty(t *testing.T) {
	ctx := context.Background()
	got := WithRequestID(ctx, "")

	assert.Equal(t, ctx, got)
	assert.Empty(t, RequestIDFromContext(got))
}

func TestContextFields(t *testing.T) {
	t.Run("empty context yields no fields", func(t *testing.T) {
		fields := ContextFields(context.Background())
		assert.Empty(t, fields)
	})

	t.Run("request id becomes a field", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-456")
		fields := ContextFields(ctx)

		assert.Len(t, fields, 1)
		assert.Equal(t, "request_id", fields[0].Key)
		assert.Equal(t, "req-456", fields[0].String)
	})
}
