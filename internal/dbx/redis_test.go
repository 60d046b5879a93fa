package dbx

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// setupTestRedis spins up an in-memory Redis, matching the teacher's
// internal/logic/test_helpers_test.go.
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisQueue) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, &RedisQueue{Client: redis.NewClient(&redis.Options{Addr: s.Addr()}), key: "linkgate:test_queue"}
}

func TestRedisQueue_PushPop_RoundTrips(t *testing.T) {
	_, q := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, []byte(`{"slug":"flash50"}`)))

	payload, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.Equal(t, `{"slug":"flash50"}`, string(payload))
}

func TestRedisQueue_Pop_TimesOutWithNilNil(t *testing.T) {
	_, q := setupTestRedis(t)
	payload, err := q.Pop(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, payload)
}

func TestRedisQueue_Len_ReflectsQueueDepth(t *testing.T) {
	_, q := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, []byte("a")))
	require.NoError(t, q.Push(ctx, []byte("b")))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestRedisQueue_Healthy(t *testing.T) {
	_, q := setupTestRedis(t)
	require.True(t, q.Healthy(context.Background()))

	require.NoError(t, q.Close())
	require.False(t, q.Healthy(context.Background()))
}

func TestRedisQueue_Healthy_NilSafe(t *testing.T) {
	var q *RedisQueue
	require.False(t, q.Healthy(context.Background()))
	require.NoError(t, q.Close())
}
