// Package ratelimit implements the optional per-(slug, IP) sliding-window
// rate limit from spec.md §5: 10 requests per minute by default against the
// Landing Handler. Grounded on the teacher's internal/logic/ratelimit
// package (TokenBucket's mutex-guarded struct, LineItemLimiter's
// map-of-buckets-with-double-checked-locking idiom), generalized from a
// per-line-item key to a composite (slug, ip) key and from a refill-rate
// token bucket to a sliding window of timestamps, since spec.md names the
// window explicitly ("sliding window of 10 requests per minute") rather
// than a burst-plus-refill rate.
package ratelimit

import (
	"sync"
	"time"
)

// Config controls the limiter's behavior. Matches SPEC_FULL.md §6's
// RATE_LIMIT_ENABLED / RATE_LIMIT_WINDOW / RATE_LIMIT_MAX knobs.
type Config struct {
	Enabled bool
	Window  time.Duration
	Max     int
}

type window struct {
	mu    sync.Mutex
	hits  []time.Time
}

// Limiter tracks a sliding window of request timestamps per (slug, ip) key.
type Limiter struct {
	cfg Config

	mu       sync.Mutex
	windows  map[string]*window
}

// New constructs a Limiter. When cfg.Enabled is false, Allow always returns
// true and no state is kept.
func New(cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Max <= 0 {
		cfg.Max = 10
	}
	return &Limiter{cfg: cfg, windows: make(map[string]*window)}
}

// Allow reports whether a request for (slug, ip) is within the sliding
// window limit. Always true when rate limiting is disabled.
func (l *Limiter) Allow(slug, ip string) bool {
	if !l.cfg.Enabled {
		return true
	}

	key := slug + "|" + ip
	w := l.windowFor(key)

	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.cfg.Window)

	kept := w.hits[:0]
	for _, t := range w.hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.hits = kept

	if len(w.hits) >= l.cfg.Max {
		return false
	}

	w.hits = append(w.hits, now)
	return true
}

func (l *Limiter) windowFor(key string) *window {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		w = &window{}
		l.windows[key] = w
	}
	return w
}
