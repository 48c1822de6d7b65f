package nodestore

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a read-through LRU in front of a Backend: Fetch hits keyed on
// the content hash, Store writes through to both the cache and the
// backend so a just-flushed node is immediately servable without a
// round trip.
type Cache struct {
	backend Backend
	lru     *expirable.LRU[[32]byte, *Entry]
}

// NewCache wraps backend with an LRU of at most size entries, each
// evicted after ttl regardless of use (ttl <= 0 disables expiry).
func NewCache(backend Backend, size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 1
	}
	return &Cache{
		backend: backend,
		lru:     expirable.NewLRU[[32]byte, *Entry](size, nil, ttl),
	}
}

func (c *Cache) Name() string { return "cache(" + c.backend.Name() + ")" }

func (c *Cache) Open(createIfMissing bool) error { return c.backend.Open(createIfMissing) }

func (c *Cache) Close() error {
	c.lru.Purge()
	return c.backend.Close()
}

func (c *Cache) IsOpen() bool { return c.backend.IsOpen() }

func (c *Cache) Fetch(hash [32]byte) (*Entry, Status) {
	if e, ok := c.lru.Get(hash); ok {
		return cloneEntry(e), OK
	}
	e, status := c.backend.Fetch(hash)
	if status == OK {
		c.lru.Add(hash, cloneEntry(e))
	}
	return e, status
}

func (c *Cache) FetchBatch(keys [][32]byte) ([]*Entry, Status) {
	out := make([]*Entry, len(keys))
	missing := make([]int, 0, len(keys))
	missingKeys := make([][32]byte, 0, len(keys))
	for i, k := range keys {
		if e, ok := c.lru.Get(k); ok {
			out[i] = cloneEntry(e)
			continue
		}
		missing = append(missing, i)
		missingKeys = append(missingKeys, k)
	}
	if len(missingKeys) == 0 {
		return out, OK
	}
	fetched, status := c.backend.FetchBatch(missingKeys)
	if status != OK {
		return nil, status
	}
	for i, e := range fetched {
		if e == nil {
			continue
		}
		c.lru.Add(missingKeys[i], cloneEntry(e))
		out[missing[i]] = e
	}
	return out, OK
}

func (c *Cache) Store(e *Entry) Status {
	status := c.backend.Store(e)
	if status == OK {
		c.lru.Add(e.Hash, cloneEntry(e))
	}
	return status
}

func (c *Cache) StoreBatch(entries []*Entry) Status {
	status := c.backend.StoreBatch(entries)
	if status == OK {
		for _, e := range entries {
			if e != nil {
				c.lru.Add(e.Hash, cloneEntry(e))
			}
		}
	}
	return status
}

func (c *Cache) Sync() Status { return c.backend.Sync() }

func (c *Cache) ForEach(fn func(*Entry) error) error { return c.backend.ForEach(fn) }

func (c *Cache) GetWriteLoad() int { return c.backend.GetWriteLoad() }

func (c *Cache) SetDeletePath() { c.backend.SetDeletePath() }

func (c *Cache) FdRequired() int { return c.backend.FdRequired() }

// Len reports the number of entries currently cached.
func (c *Cache) Len() int { return c.lru.Len() }
