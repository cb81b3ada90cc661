package spool

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// cacheKey identifies one fetch result. Chunk size is deliberately
// excluded: it affects retrieval granularity, not table contents.
type cacheKey struct {
	Selection string
	Start     string
	End       string
}

func keyFor(q Query) cacheKey {
	return cacheKey{
		Selection: q.Selection,
		Start:     q.Start.Format("2006-01-02"),
		End:       q.End.Format("2006-01-02"),
	}
}

func (k cacheKey) String() string {
	return k.Selection + "|" + k.Start + "|" + k.End
}

type cacheEntry struct {
	table    *Table
	storedAt time.Time
}

// Cache memoizes assembled tables by (selection, start, end). Reads are
// safe from concurrent callers; concurrent misses for the same key are
// collapsed into a single fetch. A TTL of zero caches for the process
// lifetime.
type Cache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
	group   singleflight.Group
}

// NewCache creates a cache with the given entry TTL
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[cacheKey]cacheEntry),
	}
}

// Fetch returns the memoized table for the query's key, invoking fn on
// a miss. The second return value reports whether the result came from
// the cache. A failed fetch is never cached.
func (c *Cache) Fetch(ctx context.Context, q Query, fn func(context.Context) (*Table, error)) (*Table, bool, error) {
	key := keyFor(q)

	if table, ok := c.lookup(key); ok {
		return table, true, nil
	}

	result, err, _ := c.group.Do(key.String(), func() (any, error) {
		// A concurrent caller may have filled the entry while this
		// one was queued on the flight group.
		if table, ok := c.lookup(key); ok {
			return table, nil
		}
		table, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, table)
		return table, nil
	})
	if err != nil {
		return nil, false, err
	}
	return result.(*Table), false, nil
}

// Invalidate drops the entry for the query's key if present
func (c *Cache) Invalidate(q Query) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, keyFor(q))
}

// Len returns the number of live entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) lookup(key cacheKey) (*Table, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.storedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.table, true
}

func (c *Cache) store(key cacheKey, table *Table) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{table: table, storedAt: time.Now()}
	c.mu.Unlock()
}
