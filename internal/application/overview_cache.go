package application

import (
	"sync"
	"time"
)

// overviewCache stores the most recent event overview to avoid recomputing
// the full aggregation for every dashboard poll while the data is fresh.
// Mutating services invalidate through the notifier, so a short TTL is only
// a backstop.
type overviewCache struct {
	mu        sync.RWMutex
	now       func() time.Time
	ttl       time.Duration
	overview  EventOverview
	populated bool
	expiresAt time.Time
}

func newOverviewCache(ttl time.Duration, now func() time.Time) *overviewCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &overviewCache{now: now, ttl: ttl}
}

func (c *overviewCache) Get() (EventOverview, bool) {
	if c == nil {
		return EventOverview{}, false
	}
	c.mu.RLock()
	overview, populated, expiresAt := c.overview, c.populated, c.expiresAt
	c.mu.RUnlock()
	if !populated || c.now().After(expiresAt) {
		return EventOverview{}, false
	}
	return cloneOverview(overview), true
}

func (c *overviewCache) Store(overview EventOverview) {
	if c == nil {
		return
	}
	cloned := cloneOverview(overview)
	c.mu.Lock()
	c.overview = cloned
	c.populated = true
	c.expiresAt = c.now().Add(c.ttl)
	c.mu.Unlock()
}

func (c *overviewCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.populated = false
	c.mu.Unlock()
}

func cloneOverview(overview EventOverview) EventOverview {
	cloned := overview
	cloned.GenderCounts = copyCountMap(overview.GenderCounts)
	cloned.AgeBuckets = copyCountMap(overview.AgeBuckets)
	if len(overview.Rooms) > 0 {
		cloned.Rooms = make([]RoomOccupancy, len(overview.Rooms))
		copy(cloned.Rooms, overview.Rooms)
	}
	return cloned
}
