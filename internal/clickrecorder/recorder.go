// Package clickrecorder implements the Click Recorder (spec.md §4.7): a
// bounded, non-blocking enqueue path draining through a fixed worker pool
// into the Link Store, with retry-with-backoff and drop-counted overflow.
// Grounded on the teacher's worker-pool shutdown idiom
// (context.CancelFunc + sync.WaitGroup) generalized from a DB-backed queue
// to a bounded queue that is, per spec.md §6's REDIS_URL setting, backed by
// a Redis list (dbx.RedisQueue) when configured and an in-process Go channel
// otherwise — the channel is the fallback, not the only backend.
package clickrecorder

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/duongmedia/linkgate/internal/models"
	"github.com/duongmedia/linkgate/internal/observability"
)

// Persister is the subset of the Link Store the recorder drains into.
type Persister interface {
	RecordClick(ctx context.Context, record models.ClickRecord) error
}

// TransientChecker lets the recorder distinguish a retryable error from a
// permanent one without importing the persistence package's concrete error
// type.
type TransientChecker func(error) bool

// RedisBackend is the subset of dbx.RedisQueue the recorder needs to back
// its queue with a Redis list instead of an in-process channel.
type RedisBackend interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
	Len(ctx context.Context) (int64, error)
}

const redisPopTimeout = 2 * time.Second

var backoffSchedule = []time.Duration{100 * time.Millisecond, 500 * time.Millisecond, 2 * time.Second}

// Recorder owns the bounded queue and worker pool. The queue is an
// in-process channel unless Config.Redis is set, in which case it is a
// Redis list shared across every process instance.
type Recorder struct {
	queue       chan models.ClickRecord
	redis       RedisBackend
	persister   Persister
	isTransient TransientChecker
	metrics     observability.MetricsRegistry

	wg     sync.WaitGroup
	cancel context.CancelFunc

	dropped      int64
	droppedMu    sync.Mutex
	shuttingDown atomic.Bool
}

// Config configures a new Recorder. When Redis is non-nil the queue is
// backed by that Redis list (spec.md §6's REDIS_URL setting) instead of the
// in-process channel, so multiple gateway instances can share one queue.
type Config struct {
	Capacity    int
	WorkerCount int
	Persister   Persister
	IsTransient TransientChecker
	Metrics     observability.MetricsRegistry
	Redis       RedisBackend
}

// New builds and starts a Recorder with the configured worker pool. Call
// Shutdown to stop accepting new records and drain the queue.
func New(cfg Config) *Recorder {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 10000
	}
	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = 4
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Recorder{
		queue:       make(chan models.ClickRecord, capacity),
		redis:       cfg.Redis,
		persister:   cfg.Persister,
		isTransient: cfg.IsTransient,
		metrics:     cfg.Metrics,
		cancel:      cancel,
	}

	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx)
	}

	return r
}

// Enqueue is non-blocking: it returns immediately whether or not the record
// is eventually dropped. On a full queue (or a failed Redis push) the record
// is dropped and the dropped counter (surfaced by the health endpoint) is
// incremented.
func (r *Recorder) Enqueue(record models.ClickRecord) {
	if r.shuttingDown.Load() {
		r.drop(record, "shutting down")
		return
	}

	if r.redis != nil {
		payload, err := json.Marshal(record)
		if err != nil {
			r.drop(record, "marshal failed")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := r.redis.Push(ctx, payload); err != nil {
			zap.L().Warn("redis click queue push failed, dropping record", zap.String("slug", record.Slug), zap.Error(err))
			r.drop(record, "redis push failed")
			return
		}
		if depth, err := r.redis.Len(ctx); err == nil {
			r.metrics.SetClickQueueDepth(float64(depth))
		}
		return
	}

	select {
	case r.queue <- record:
	default:
		r.drop(record, "queue full")
		return
	}
	r.metrics.SetClickQueueDepth(float64(len(r.queue)))
}

func (r *Recorder) drop(record models.ClickRecord, reason string) {
	r.droppedMu.Lock()
	r.dropped++
	r.droppedMu.Unlock()
	r.metrics.IncrementClicksDropped()
	if reason != "shutting down" {
		zap.L().Warn("dropping click record", zap.String("slug", record.Slug), zap.String("reason", reason))
	}
}

// QueueDepth reports the current number of records waiting to be drained,
// for the health endpoint.
func (r *Recorder) QueueDepth() int {
	if r.redis != nil {
		depth, err := r.redis.Len(context.Background())
		if err != nil {
			return 0
		}
		return int(depth)
	}
	return len(r.queue)
}

// DroppedCount reports the cumulative number of records dropped, whether
// from a full queue or from exhausted persistence retries.
func (r *Recorder) DroppedCount() int64 {
	r.droppedMu.Lock()
	defer r.droppedMu.Unlock()
	return r.dropped
}

func (r *Recorder) worker(ctx context.Context) {
	defer r.wg.Done()
	if r.redis != nil {
		r.redisWorker(ctx)
		return
	}
	for {
		select {
		case <-ctx.Done():
			r.drainRemaining()
			return
		case record := <-r.queue:
			r.persistWithRetry(ctx, record)
		}
	}
}

// redisWorker blocks on BRPop against the shared Redis list instead of an
// in-process channel receive, so the queue can be drained by any gateway
// instance, not just the one that enqueued the record.
func (r *Recorder) redisWorker(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			r.drainRemaining()
			return
		}
		payload, err := r.redis.Pop(ctx, redisPopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				r.drainRemaining()
				return
			}
			zap.L().Warn("redis click queue pop failed", zap.Error(err))
			continue
		}
		if payload == nil {
			continue
		}
		var record models.ClickRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			zap.L().Error("redis click queue payload unmarshal failed", zap.Error(err))
			continue
		}
		r.persistWithRetry(ctx, record)
	}
}

// drainRemaining flushes whatever is left in the queue once after shutdown
// is signalled, on a best-effort basis, then returns.
func (r *Recorder) drainRemaining() {
	if r.redis != nil {
		for {
			payload, err := r.redis.Pop(context.Background(), 100*time.Millisecond)
			if err != nil || payload == nil {
				return
			}
			var record models.ClickRecord
			if err := json.Unmarshal(payload, &record); err != nil {
				continue
			}
			r.persistWithRetry(context.Background(), record)
		}
	}
	for {
		select {
		case record := <-r.queue:
			r.persistWithRetry(context.Background(), record)
		default:
			return
		}
	}
}

func (r *Recorder) persistWithRetry(ctx context.Context, record models.ClickRecord) {
	var lastErr error
	for attempt := 0; attempt <= len(backoffSchedule); attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffSchedule[attempt-1]):
			case <-ctx.Done():
			}
		}

		err := r.persister.RecordClick(ctx, record)
		if err == nil {
			return
		}
		lastErr = err

		if r.isTransient != nil && !r.isTransient(err) {
			break
		}
	}

	r.droppedMu.Lock()
	r.dropped++
	r.droppedMu.Unlock()
	r.metrics.IncrementClicksPersistFailed()
	zap.L().Error("click record persist failed, dropping after retries",
		zap.String("slug", record.Slug), zap.Error(lastErr))
}

// Shutdown stops accepting new records (later Enqueue calls drop them) and
// blocks, up to timeout, for in-flight and queued records to drain before
// returning.
func (r *Recorder) Shutdown(timeout time.Duration) {
	r.shuttingDown.Store(true)
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		zap.L().Warn("click recorder shutdown timed out with records still queued",
			zap.Int("remaining", len(r.queue)))
	}
}
