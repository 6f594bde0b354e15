package cache

import (
	"context"
	"sync"
	"time"

	"github.com/example/blog-engagement/services/engagement/internal/engagement"
)

// MemoryReportCache keeps the report in process. Entries expire after TTL;
// a zero TTL never expires.
type MemoryReportCache struct {
	TTL time.Duration

	mu      sync.RWMutex
	report  engagement.Report
	ok      bool
	expires time.Time
	now     func() time.Time
}

func NewMemoryReportCache(ttl time.Duration) *MemoryReportCache {
	return &MemoryReportCache{TTL: ttl, now: time.Now}
}

func (c *MemoryReportCache) Get(context.Context) (engagement.Report, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ok || (c.TTL > 0 && !c.now().Before(c.expires)) {
		return engagement.Report{}, false, nil
	}
	return c.report, true, nil
}

func (c *MemoryReportCache) Set(_ context.Context, r engagement.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report = r
	c.ok = true
	c.expires = c.now().Add(c.TTL)
	return nil
}

func (c *MemoryReportCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report = engagement.Report{}
	c.ok = false
	return nil
}
