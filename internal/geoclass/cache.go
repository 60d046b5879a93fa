package geoclass

import (
	"container/list"
	"sync"
	"time"

	"github.com/duongmedia/linkgate/internal/models"
)

// No LRU or TTL-cache library appears anywhere in the example pack, so this
// is a hand-rolled bounded LRU keyed by IP string, styled after the
// sync.Mutex-guarded counter idiom in the teacher's
// internal/logic/ratelimit/token_bucket.go.
type cacheEntry struct {
	key       string
	value     models.IPClassification
	expiresAt time.Time
}

type lruCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	ll       *list.List
	items    map[string]*list.Element
}

func newLRUCache(capacity int, ttl time.Duration) *lruCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &lruCache{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

func (c *lruCache) get(key string) (models.IPClassification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return models.IPClassification{}, false
	}
	entry := el.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.ll.Remove(el)
		delete(c.items, key)
		return models.IPClassification{}, false
	}
	c.ll.MoveToFront(el)
	return entry.value, true
}

func (c *lruCache) set(key string, value models.IPClassification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = time.Now().Add(c.ttl)
		c.ll.MoveToFront(el)
		return
	}

	entry := &cacheEntry{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	el := c.ll.PushFront(entry)
	c.items[key] = el

	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}
