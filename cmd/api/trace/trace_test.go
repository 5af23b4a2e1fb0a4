package trace

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))

	id := GenerateID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)

	ctx := WithRequestID(context.Background(), id)
	assert.Equal(t, id, RequestIDFromContext(ctx))
}
