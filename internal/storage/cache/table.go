package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/pkg/metrics"
)

// TableCache holds at most one unfiltered sales table together with the time it
// was loaded. Callers always receive copies, never the cached table itself.
type TableCache struct {
	mu       sync.RWMutex
	table    *domain.SalesTable
	loadedAt time.Time

	group singleflight.Group
	now   func() time.Time
}

type LoadFunc func(ctx context.Context) (*domain.SalesTable, error)

func NewTableCache() *TableCache {
	return &TableCache{now: time.Now}
}

// NewTableCacheWithClock is NewTableCache with an injectable clock.
func NewTableCacheWithClock(now func() time.Time) *TableCache {
	return &TableCache{now: now}
}

// Get returns a copy of the cached table if it is younger than ttl.
func (c *TableCache) Get(ttl time.Duration) (*domain.SalesTable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.table == nil || c.now().Sub(c.loadedAt) >= ttl {
		return nil, false
	}
	return c.table.Clone(), true
}

// Store replaces the slot with a copy of table stamped with the current time.
func (c *TableCache) Store(table *domain.SalesTable) {
	snapshot := table.Clone()
	stamp := c.now()

	c.mu.Lock()
	c.table, c.loadedAt = snapshot, stamp
	c.mu.Unlock()
}

// GetOrLoad serves a fresh cached copy or runs load, installs its result and
// returns a copy of it. Concurrent misses share a single load, which is not
// cancelled when one waiting caller goes away; each caller stops waiting on
// its own ctx.
func (c *TableCache) GetOrLoad(ctx context.Context, ttl time.Duration, load LoadFunc) (*domain.SalesTable, error) {
	if table, ok := c.Get(ttl); ok {
		metrics.RecordCacheHit()
		return table, nil
	}
	metrics.RecordCacheMiss()

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan("sales", func() (interface{}, error) {
		if table, ok := c.Get(ttl); ok {
			return table, nil
		}
		table, err := load(shared)
		if err != nil {
			return nil, err
		}
		c.Store(table)
		return table, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.SalesTable).Clone(), nil
	}
}

// Invalidate empties the slot.
func (c *TableCache) Invalidate() {
	c.mu.Lock()
	c.table, c.loadedAt = nil, time.Time{}
	c.mu.Unlock()
}

// LoadedAt returns when the slot was last populated, zero if empty.
func (c *TableCache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}
