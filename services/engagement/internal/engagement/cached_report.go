package engagement

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

// ReportCache stores the last available report.
type ReportCache interface {
	// Get reports ok=false on a miss.
	Get(ctx context.Context) (Report, bool, error)
	Set(ctx context.Context, r Report) error
	Invalidate(ctx context.Context) error
}

// CachedReporter serves the rollup from a ReportCache and recomputes it after
// invalidation. It is also a Notifier: every local change invalidates.
type CachedReporter struct {
	source ReportSource
	cache  ReportCache
	log    *zap.Logger

	// gen increments on every invalidation. A report computed or written
	// across an invalidation is returned but never left in the cache.
	gen atomic.Uint64
}

func NewCachedReporter(source ReportSource, cache ReportCache, log *zap.Logger) *CachedReporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedReporter{source: source, cache: cache, log: log}
}

func (c *CachedReporter) GlobalEngagement(ctx context.Context) (Report, error) {
	cached, ok, err := c.cache.Get(ctx)
	if err != nil {
		c.log.Warn("report cache read failed", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	gen := c.gen.Load()
	rep, err := c.source.GlobalEngagement(ctx)
	if err != nil || !rep.Available {
		return rep, err
	}
	if c.gen.Load() != gen {
		return rep, nil
	}
	if err := c.cache.Set(ctx, rep); err != nil {
		c.log.Warn("report cache write failed", zap.Error(err))
		return rep, nil
	}
	// An invalidation that raced the write may have been overwritten by it.
	if c.gen.Load() != gen {
		if err := c.cache.Invalidate(ctx); err != nil {
			c.log.Warn("report cache invalidate failed", zap.Error(err))
		}
	}
	return rep, nil
}

// Invalidate drops the cached report.
func (c *CachedReporter) Invalidate(ctx context.Context) error {
	c.gen.Add(1)
	return c.cache.Invalidate(ctx)
}

func (c *CachedReporter) Notify(ctx context.Context, ch Change) {
	if err := c.Invalidate(ctx); err != nil {
		c.log.Warn("report cache invalidate failed", zap.String("change", string(ch.Kind)), zap.Error(err))
	}
}
