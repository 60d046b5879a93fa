package dbx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisQueue wraps a go-redis client used as the optional click-recorder
// backend (REDIS_URL set) instead of the in-process channel. Grounded on
// the teacher's internal/db/redis.go counter-store wrapper, generalized
// from Incr/Expire counters to a list-backed queue (LPush/BRPop).
type RedisQueue struct {
	Client *redis.Client
	key    string
}

// InitRedis connects to redisURL and instruments the client with
// redisotel.InstrumentTracing, exactly as the teacher's RedisStore does.
func InitRedis(redisURL, queueKey string) (*RedisQueue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("instrument redis tracing: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	zap.L().Info("connected to redis", zap.String("queue_key", queueKey))
	return &RedisQueue{Client: client, key: queueKey}, nil
}

// Push enqueues a JSON-encoded record. Non-blocking from the caller's
// perspective: LPUSH itself is a fast O(1) Redis operation, so this is used
// directly from the Click Recorder's enqueue path.
func (q *RedisQueue) Push(ctx context.Context, payload []byte) error {
	return q.Client.LPush(ctx, q.key, payload).Err()
}

// Pop blocks up to timeout for the next queued record, returning
// (nil, nil) on timeout with nothing available.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := q.Client.BRPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

// Len reports the current queue depth, used by the health endpoint.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.Client.LLen(ctx, q.key).Result()
}

// Close closes the underlying connection.
func (q *RedisQueue) Close() error {
	if q == nil || q.Client == nil {
		return nil
	}
	return q.Client.Close()
}

// Healthy reports whether Redis currently responds to a ping.
func (q *RedisQueue) Healthy(ctx context.Context) bool {
	if q == nil || q.Client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return q.Client.Ping(ctx).Err() == nil
}
