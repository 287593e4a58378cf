package routes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)

	_, ok, err := c.Get(ctx, "VLG12AB")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "VLG12AB", "Madrid"))
	dep, ok, err := c.Get(ctx, "VLG12AB")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Madrid", dep)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Hour)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "VLG12AB", "Madrid"))

	now = now.Add(59 * time.Minute)
	_, ok, _ := c.Get(ctx, "VLG12AB")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "VLG12AB")
	assert.False(t, ok)
	assert.Empty(t, c.entries, "expired entry is dropped")
}

func TestNewRedisCache_BadURL(t *testing.T) {
	_, err := NewRedisCache("not-a-url", time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache("redis://127.0.0.1:1/0", time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}
