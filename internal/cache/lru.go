package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/bitdex/resource"
)

// LRU implements BlobCache with least-recently-used eviction.
type LRU struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[string]*list.Element
	evictList *list.List
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	name  string
	value []byte
}

// NewLRU creates a cache holding at most capacity bytes.
// If rc is not nil, cached bytes are reserved from it.
func NewLRU(capacity int64, rc *resource.Controller) *LRU {
	return &LRU{
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		rc:        rc,
	}
}

// Get implements BlobCache.
func (c *LRU) Get(_ context.Context, name string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[name]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(el)
		return el.Value.(*entry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set implements BlobCache.
func (c *LRU) Set(_ context.Context, name string, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[name]; ok {
		c.removeElement(el)
	}

	n := int64(len(b))
	if n > c.capacity {
		return
	}

	// Evict locally first so the controller gets memory back before the
	// new reservation.
	for c.size+n > c.capacity {
		el := c.evictList.Back()
		if el == nil {
			break
		}
		c.removeElement(el)
	}

	if !c.rc.TryAcquireMemory(n) {
		return
	}

	c.items[name] = c.evictList.PushFront(&entry{name: name, value: b})
	c.size += n
}

// Invalidate implements BlobCache.
func (c *LRU) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[name]; ok {
		c.removeElement(el)
	}
}

// Stats implements BlobCache.
func (c *LRU) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the number of cached bytes.
func (c *LRU) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of cached blobs.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

func (c *LRU) removeElement(el *list.Element) {
	c.evictList.Remove(el)
	e := el.Value.(*entry)
	delete(c.items, e.name)
	n := int64(len(e.value))
	c.size -= n
	c.rc.ReleaseMemory(n)
}
