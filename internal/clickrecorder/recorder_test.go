package clickrecorder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duongmedia/linkgate/internal/models"
	"github.com/duongmedia/linkgate/internal/observability"
)

// redisQueueStub mirrors dbx.RedisQueue against an in-memory miniredis
// instance, matching the teacher's internal/logic/test_helpers_test.go.
type redisQueueStub struct {
	client *redis.Client
	key    string
}

func (q *redisQueueStub) Push(ctx context.Context, payload []byte) error {
	return q.client.LPush(ctx, q.key, payload).Err()
}

func (q *redisQueueStub) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(res[1]), nil
}

func (q *redisQueueStub) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func setupTestRedisQueue(t *testing.T) *redisQueueStub {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return &redisQueueStub{client: redis.NewClient(&redis.Options{Addr: s.Addr()}), key: "linkgate:test_click_queue"}
}

type fakePersister struct {
	mu       sync.Mutex
	records  []models.ClickRecord
	failN    int32 // number of times to fail before succeeding
	failedAt map[string]int32
}

func newFakePersister() *fakePersister {
	return &fakePersister{failedAt: make(map[string]int32)}
}

func (f *fakePersister) RecordClick(ctx context.Context, record models.ClickRecord) error {
	if f.failN > 0 {
		f.mu.Lock()
		attempts := f.failedAt[record.Slug]
		f.failedAt[record.Slug] = attempts + 1
		f.mu.Unlock()
		if attempts < f.failN {
			return errors.New("transient failure")
		}
	}
	f.mu.Lock()
	f.records = append(f.records, record)
	f.mu.Unlock()
	return nil
}

func (f *fakePersister) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func alwaysTransient(error) bool { return true }

func TestRecorder_EnqueueAndDrain(t *testing.T) {
	persister := newFakePersister()
	r := New(Config{Capacity: 100, WorkerCount: 2, Persister: persister, IsTransient: alwaysTransient, Metrics: observability.NoOpRegistry{}})

	r.Enqueue(models.ClickRecord{Slug: "flash50", IP: "1.1.1.1", Valid: true, At: time.Now()})
	r.Shutdown(2 * time.Second)

	assert.Equal(t, 1, persister.count())
	assert.EqualValues(t, 0, r.DroppedCount())
}

func TestRecorder_DropsWhenQueueFull(t *testing.T) {
	blocker := make(chan struct{})
	persister := &blockingPersister{unblock: blocker}
	r := New(Config{Capacity: 1, WorkerCount: 1, Persister: persister, IsTransient: alwaysTransient, Metrics: observability.NoOpRegistry{}})

	// first record occupies the single worker (blocked on the channel)
	r.Enqueue(models.ClickRecord{Slug: "a"})
	time.Sleep(20 * time.Millisecond)
	// second fills the capacity-1 queue
	r.Enqueue(models.ClickRecord{Slug: "b"})
	time.Sleep(10 * time.Millisecond)
	// third should be dropped: queue full and worker busy
	r.Enqueue(models.ClickRecord{Slug: "c"})

	close(blocker)
	r.Shutdown(2 * time.Second)

	assert.GreaterOrEqual(t, r.DroppedCount(), int64(1))
}

type blockingPersister struct {
	unblock chan struct{}
	count   atomic.Int32
}

func (b *blockingPersister) RecordClick(ctx context.Context, record models.ClickRecord) error {
	<-b.unblock
	b.count.Add(1)
	return nil
}

func TestRecorder_RetriesTransientThenSucceeds(t *testing.T) {
	persister := newFakePersister()
	persister.failN = 2
	r := New(Config{Capacity: 10, WorkerCount: 1, Persister: persister, IsTransient: alwaysTransient, Metrics: observability.NoOpRegistry{}})

	r.Enqueue(models.ClickRecord{Slug: "retry-me", At: time.Now()})
	r.Shutdown(5 * time.Second)

	require.Equal(t, 1, persister.count())
	assert.EqualValues(t, 0, r.DroppedCount())
}

func TestRecorder_RedisBacked_EnqueueAndDrain(t *testing.T) {
	queue := setupTestRedisQueue(t)
	persister := newFakePersister()
	r := New(Config{Capacity: 100, WorkerCount: 2, Persister: persister, IsTransient: alwaysTransient, Metrics: observability.NoOpRegistry{}, Redis: queue})

	r.Enqueue(models.ClickRecord{Slug: "flash50", IP: "1.1.1.1", Valid: true, At: time.Now()})

	require.Eventually(t, func() bool { return persister.count() == 1 }, time.Second, 10*time.Millisecond)
	r.Shutdown(2 * time.Second)

	assert.EqualValues(t, 0, r.DroppedCount())
}

func TestRecorder_RedisBacked_QueueDepthReflectsRedisLen(t *testing.T) {
	queue := setupTestRedisQueue(t)
	blocker := make(chan struct{})
	persister := &blockingPersister{unblock: blocker}
	r := New(Config{Capacity: 100, WorkerCount: 1, Persister: persister, IsTransient: alwaysTransient, Metrics: observability.NoOpRegistry{}, Redis: queue})

	r.Enqueue(models.ClickRecord{Slug: "a"})
	time.Sleep(20 * time.Millisecond) // claimed by the single worker, blocked on persist
	r.Enqueue(models.ClickRecord{Slug: "b"})
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, r.QueueDepth())

	close(blocker)
	r.Shutdown(2 * time.Second)
}

func TestRecorder_PermanentErrorDropsImmediately(t *testing.T) {
	persister := newFakePersister()
	persister.failN = 1000
	notTransient := func(error) bool { return false }
	r := New(Config{Capacity: 10, WorkerCount: 1, Persister: persister, IsTransient: notTransient, Metrics: observability.NoOpRegistry{}})

	r.Enqueue(models.ClickRecord{Slug: "permanent-fail", At: time.Now()})
	r.Shutdown(2 * time.Second)

	assert.Equal(t, 0, persister.count())
	assert.EqualValues(t, 1, r.DroppedCount())
}
