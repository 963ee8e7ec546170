package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/sportplanner/internal/domain/types"
	"github.com/okian/sportplanner/pkg/logger"
	"github.com/okian/sportplanner/pkg/metrics"
)

// entry is one cached proposal, linked in insertion order.
type entry struct {
	teamID    int64
	resp      *types.ProposalResponse
	expiresAt time.Time
	newer     *entry
	older     *entry
}

func (e *entry) reset() {
	*e = entry{}
}

// MemoryCache is a bounded in-process ProposalCache.
// For bounded mode (maxSize > 0) the oldest stored entry is evicted when full.
// For unbounded mode (maxSize <= 0) entries only leave by expiry or Invalidate.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[int64]*entry
	newest  *entry
	oldest  *entry
	size    atomic.Int64
	pool    sync.Pool
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	log     logger.Logger
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache(opts ...Option) *MemoryCache {
	cfg := newConfig(opts)
	return &MemoryCache{
		entries: make(map[int64]*entry),
		pool:    sync.Pool{New: func() any { return &entry{} }},
		maxSize: cfg.maxSize,
		ttl:     cfg.ttl,
		now:     cfg.now,
		log:     cfg.log,
	}
}

// Get returns the proposal for teamID. Expired entries are dropped and miss.
func (c *MemoryCache) Get(_ context.Context, teamID int64) (*types.ProposalResponse, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[teamID]
	if ok && !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.remove(e)
		ok = false
	}
	if !ok {
		metrics.RecordCacheMiss(BackendMemory)
		return nil, false, nil
	}
	metrics.RecordCacheHit(BackendMemory)
	return e.resp, true, nil
}

// Set stores resp as the newest entry for teamID.
func (c *MemoryCache) Set(ctx context.Context, teamID int64, resp *types.ProposalResponse) error {
	if resp == nil {
		return ErrNilProposal
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[teamID]; ok {
		c.remove(old)
	}
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		evicted := c.oldest.teamID
		c.remove(c.oldest)
		c.log.Debug(ctx, "proposal evicted", logger.Int64("team_id", evicted))
	}

	e := c.pool.Get().(*entry)
	e.teamID = teamID
	e.resp = resp
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	e.older = c.newest
	if c.newest != nil {
		c.newest.newer = e
	}
	c.newest = e
	if c.oldest == nil {
		c.oldest = e
	}
	c.entries[teamID] = e
	c.size.Add(1)
	return nil
}

// Invalidate drops the entry for teamID if present.
func (c *MemoryCache) Invalidate(_ context.Context, teamID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[teamID]; ok {
		c.remove(e)
	}
	return nil
}

// Len reports the number of stored entries, expired ones included until
// they are next read.
func (c *MemoryCache) Len(context.Context) (int64, error) {
	return c.size.Load(), nil
}

// Close releases nothing; the cache stays usable.
func (c *MemoryCache) Close() error { return nil }

// remove unlinks e. Must be called with c.mu held.
func (c *MemoryCache) remove(e *entry) {
	if e.newer != nil {
		e.newer.older = e.older
	} else {
		c.newest = e.older
	}
	if e.older != nil {
		e.older.newer = e.newer
	} else {
		c.oldest = e.newer
	}
	delete(c.entries, e.teamID)
	c.size.Add(-1)
	e.reset()
	c.pool.Put(e)
}
