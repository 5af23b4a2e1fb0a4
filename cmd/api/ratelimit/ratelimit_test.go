package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewFixedWindowLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, _, err := rl.Allow(ctx, "user-a")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	now = now.Add(20 * time.Second)
	ok, retry, err := rl.Allow(ctx, "user-a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retry)

	ok, _, err = rl.Allow(ctx, "user-b")
	require.NoError(t, err)
	assert.True(t, ok, "keys are counted separately")

	now = now.Add(40 * time.Second)
	ok, _, err = rl.Allow(ctx, "user-a")
	require.NoError(t, err)
	assert.True(t, ok, "window resets")
}
