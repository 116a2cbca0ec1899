package forecast

import (
	"context"
	"sync"
	"time"
)

// A cache entry is valid for the UTC calendar date it was computed on, not
// for a rolling TTL. UTC is used deliberately so the day boundary does not
// depend on where the process runs.

type cacheKey struct {
	city string
	day  int
}

type cacheEntry struct {
	value Aggregated
	date  string // UTC date the entry was computed on, "2006-01-02"
}

type inflight struct {
	done  chan struct{}
	value Aggregated
	err   error
}

type dayCache struct {
	mu       sync.Mutex
	entries  map[cacheKey]cacheEntry
	inflight map[cacheKey]*inflight
	now      func() time.Time

	metrics MetricsRecorder
}

func newDayCache() *dayCache {
	return &dayCache{
		entries:  make(map[cacheKey]cacheEntry),
		inflight: make(map[cacheKey]*inflight),
		now:      time.Now,
	}
}

func (c *dayCache) today() string {
	return c.now().UTC().Format("2006-01-02")
}

// getOrCompute returns the cached value for key if it was computed today,
// otherwise runs compute and stores a successful result. Concurrent misses
// on the same key collapse into a single compute; every waiter receives that
// one result. Failed computes are never stored, so the next caller retries.
func (c *dayCache) getOrCompute(ctx context.Context, key cacheKey, compute func(context.Context) (Aggregated, error)) (Aggregated, error) {
	today := c.today()

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && entry.date == today {
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.RecordCacheHit(ctx)
		}
		return entry.value, nil
	}

	if fl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-fl.done:
			return fl.value, fl.err
		case <-ctx.Done():
			return Aggregated{}, ctx.Err()
		}
	}

	fl := &inflight{done: make(chan struct{})}
	c.inflight[key] = fl
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordCacheMiss(ctx)
	}

	value, err := compute(ctx)
	fl.value, fl.err = value, err

	c.mu.Lock()
	delete(c.inflight, key)
	if err == nil {
		c.entries[key] = cacheEntry{value: value, date: today}
	}
	c.mu.Unlock()

	close(fl.done)

	return value, err
}

// size reports the number of stored entries, including stale ones that have
// not been replaced yet.
func (c *dayCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
