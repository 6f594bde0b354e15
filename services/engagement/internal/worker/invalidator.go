// Package worker consumes engagement events published by sibling instances.
package worker

import (
	"context"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/blog-engagement/internal/platform/events"
)

// Invalidator drops a cached rollup.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// CacheInvalidator drops the shared report cache whenever another instance
// reports a change. Events stamped with Origin were already handled locally.
type CacheInvalidator struct {
	Cache  Invalidator
	Origin string
	Log    *zap.Logger
}

type subscriber interface {
	Subscribe(subj string, cb nats.MsgHandler, opts ...nats.SubOpt) (*nats.Subscription, error)
}

// Start subscribes to every engagement subject with an ephemeral consumer that
// only sees new messages. The subscription is dropped when ctx is done.
func (w *CacheInvalidator) Start(ctx context.Context, js subscriber) error {
	sub, err := js.Subscribe(events.SubjectAll, func(m *nats.Msg) {
		w.handle(ctx, m.Subject, m.Data)
	}, nats.DeliverNew(), nats.AckNone())
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
			w.logger().Warn("cache_invalidator: unsubscribe", zap.Error(err))
		}
	}()
	w.logger().Info("cache_invalidator: subscribed", zap.String("subject", events.SubjectAll))
	return nil
}

// handle reports whether the message caused an invalidation.
func (w *CacheInvalidator) handle(ctx context.Context, subject string, data []byte) bool {
	log := w.logger()
	ev, err := events.Decode(data)
	if err != nil {
		log.Warn("cache_invalidator: invalid event", zap.String("subject", subject), zap.Error(err))
		return false
	}
	if ev.Origin != "" && ev.Origin == w.Origin {
		return false
	}
	if err := w.Cache.Invalidate(ctx); err != nil {
		log.Warn("cache_invalidator: invalidate failed", zap.String("event", ev.EventName), zap.Error(err))
		return false
	}
	log.Debug("cache_invalidator: invalidated",
		zap.String("event", ev.EventName), zap.String("origin", ev.Origin))
	return true
}

func (w *CacheInvalidator) logger() *zap.Logger {
	if w.Log == nil {
		return zap.NewNop()
	}
	return w.Log
}
