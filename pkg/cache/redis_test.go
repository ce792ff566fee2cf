package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Location string `json:"location"`
	Units    int    `json:"units"`
}

func newTestClient(t *testing.T) (*miniredis.Miniredis, *RedisClient) {
	mr := miniredis.RunT(t)
	c, err := NewRedisClient(&Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return mr, c
}

func TestRedisClient_SetGetJSON(t *testing.T) {
	_, c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "inventory:loc-1", snapshot{Location: "loc-1", Units: 7}, time.Minute))

	var got snapshot
	require.NoError(t, c.GetJSON(ctx, "inventory:loc-1", &got))
	assert.Equal(t, snapshot{Location: "loc-1", Units: 7}, got)
}

func TestRedisClient_Miss(t *testing.T) {
	_, c := newTestClient(t)

	var got snapshot
	err := c.GetJSON(context.Background(), "missing", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisClient_DeleteAndTTL(t *testing.T) {
	mr, c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "a", 1, time.Minute))
	require.NoError(t, c.SetJSON(ctx, "b", 2, time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("a"))

	require.NoError(t, c.Delete(ctx, "a", "b"))
	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
	require.NoError(t, c.Delete(ctx))
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(&Config{Addr: addr})
	assert.Error(t, err)
}
