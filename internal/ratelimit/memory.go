package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

type quotaEntry struct {
	day   string
	count int
}

type quotaShard struct {
	mu        sync.Mutex
	entries   map[string]*quotaEntry
	prunedDay string
}

// MemoryQuotaStore keeps daily counters in process memory, sharded by key.
// Entries from previous days are dropped the first time a shard sees a new day.
type MemoryQuotaStore struct {
	shards [stripes]quotaShard
}

// NewMemoryQuotaStore creates an empty in-memory quota store.
func NewMemoryQuotaStore() *MemoryQuotaStore {
	s := &MemoryQuotaStore{}
	for i := range s.shards {
		s.shards[i].entries = make(map[string]*quotaEntry)
	}
	return s
}

// Consume implements QuotaStore.
func (s *MemoryQuotaStore) Consume(_ context.Context, key, day string, limit int) (int, bool, error) {
	sh := &s.shards[stripeIndex(key)]
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sh.prunedDay != day {
		for k, e := range sh.entries {
			if e.day != day {
				delete(sh.entries, k)
			}
		}
		sh.prunedDay = day
	}

	e, ok := sh.entries[key]
	if !ok || e.day != day {
		e = &quotaEntry{day: day}
	}
	if e.count >= limit {
		return e.count, false, nil
	}
	e.count++
	sh.entries[key] = e
	return e.count, true, nil
}

// Len returns the number of tracked callers.
func (s *MemoryQuotaStore) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// MemoryThrottleStore keeps last-seen stamps in a go-cache with per-entry TTL,
// so stale keys expire instead of accumulating.
type MemoryThrottleStore struct {
	locks stripedLock
	c     *cache.Cache
}

// NewMemoryThrottleStore creates a store whose janitor sweeps expired entries every cleanup.
func NewMemoryThrottleStore(cleanup time.Duration) *MemoryThrottleStore {
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &MemoryThrottleStore{c: cache.New(cache.NoExpiration, cleanup)}
}

// Mark implements ThrottleStore. Stamps are compared against now, not wall time,
// so an injected clock governs duplicate detection.
func (s *MemoryThrottleStore) Mark(_ context.Context, key string, now time.Time, window time.Duration) (bool, error) {
	m := s.locks.lock(key)
	defer m.Unlock()

	if v, ok := s.c.Get(key); ok {
		if last, ok := v.(time.Time); ok && now.Sub(last) < window {
			return true, nil
		}
	}
	s.c.Set(key, now, window)
	return false, nil
}

// Len returns the number of unexpired stamps.
func (s *MemoryThrottleStore) Len() int {
	return s.c.ItemCount()
}
