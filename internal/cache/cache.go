package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wakeaudio/internal/core"
)

const (
	// DefaultHotFreshness bounds how long a durable hit stays in the hot
	// tier before the next read goes back to the source of truth. Always
	// shorter than any durable TTL.
	DefaultHotFreshness = 1 * time.Hour

	// topUsedLimit caps the Stats top-used breakdown.
	topUsedLimit = 10

	// usageTimeout bounds the fire-and-forget usage increment goroutines.
	usageTimeout = 5 * time.Second
)

// SegmentCache is the two-tier segment cache: read-through from hot to
// durable, write-through from durable to hot. The durable tier is the system
// of record; the hot tier is a disposable accelerator whose unavailability
// degrades reads and writes to durable-only operation.
//
// Known limitation: concurrent misses on the same key each synthesize and
// write independently (cache stampede). The last write wins and the duplicate
// synthesis cost is accepted; there is no per-key single-flight.
type SegmentCache struct {
	hot     Store
	durable Store

	// hotFreshness is the bounded window a durable hit stays hot.
	hotFreshness time.Duration

	logger *slog.Logger
}

// Option configures a SegmentCache.
type Option func(*SegmentCache)

// WithHotFreshness overrides the hot-tier freshness window.
func WithHotFreshness(d time.Duration) Option {
	return func(c *SegmentCache) {
		if d > 0 {
			c.hotFreshness = d
		}
	}
}

// WithLogger overrides the cache logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *SegmentCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a SegmentCache over a hot and a durable tier. The durable tier
// is required; a nil hot tier falls back to an in-memory store.
func New(hot, durable Store, opts ...Option) (*SegmentCache, error) {
	if durable == nil {
		return nil, fmt.Errorf("durable store is required")
	}
	if hot == nil {
		hot = NewMemoryStore()
	}

	c := &SegmentCache{
		hot:          hot,
		durable:      durable,
		hotFreshness: DefaultHotFreshness,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get resolves a key, hot tier first. A hot fault logs and degrades to the
// durable tier; a durable fault is surfaced as a durable_store error. Usage
// counting happens off the critical path and never fails the read.
func (c *SegmentCache) Get(ctx context.Context, key Key) (*Entry, bool, error) {
	k := key.String()

	entry, err := c.hot.Get(ctx, k)
	switch {
	case err == nil:
		c.countUsage(k)
		return entry, true, nil
	case !errors.Is(err, ErrNotFound):
		c.logger.Warn("hot tier read failed, falling back to durable", "key", k, "error", err)
	}

	entry, err = c.durable.Get(ctx, k)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, core.NewDurableStoreError("segment cache read failed", err)
	}

	// Re-warm the hot tier with a bounded freshness window so the copy
	// cannot outlive a durable refresh for long.
	if err := c.hot.Set(ctx, k, entry, c.hotWindow(entry)); err != nil {
		c.logger.Warn("hot tier write-back failed", "key", k, "error", err)
	}

	c.countUsage(k)
	return entry, true, nil
}

// Set writes through: durable tier first (hard failure), then the hot tier
// (best-effort). The logical TTL is a domain string like "7 days"; the
// entry's ExpiresAt is derived from it once, at write time.
func (c *SegmentCache) Set(ctx context.Context, key Key, entry *Entry, ttl string) error {
	d, err := ParseTTL(ttl)
	if err != nil {
		return core.NewInvalidRequestError("invalid cache ttl", err)
	}

	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.ExpiresAt = now.Add(d)

	k := key.String()
	if err := c.durable.Set(ctx, k, entry, d); err != nil {
		return core.NewDurableStoreError("segment cache write failed", err)
	}

	if err := c.hot.Set(ctx, k, entry, c.hotWindow(entry)); err != nil {
		c.logger.Warn("hot tier write failed", "key", k, "error", err)
	}

	return nil
}

// Invalidate removes a key from both tiers. The durable tier is
// authoritative; a hot-tier failure only logs.
func (c *SegmentCache) Invalidate(ctx context.Context, key Key) error {
	k := key.String()
	if err := c.durable.Delete(ctx, k); err != nil {
		return core.NewDurableStoreError("segment invalidation failed", err)
	}
	if err := c.hot.Delete(ctx, k); err != nil {
		c.logger.Warn("hot tier delete failed", "key", k, "error", err)
	}
	return nil
}

// InvalidateByPrefix removes every matching key from both tiers and returns
// the durable count. The hot-tier scan is best-effort.
func (c *SegmentCache) InvalidateByPrefix(ctx context.Context, prefix string) (int64, error) {
	removed, err := c.durable.DeleteByPrefix(ctx, prefix)
	if err != nil {
		return 0, core.NewDurableStoreError("prefix invalidation failed", err)
	}
	if _, err := c.hot.DeleteByPrefix(ctx, prefix); err != nil {
		c.logger.Warn("hot tier prefix delete failed", "prefix", prefix, "error", err)
	}
	return removed, nil
}

// Cleanup deletes all durable entries past their expiry and returns the
// count. Idempotent; safe to run concurrently with reads and writes.
func (c *SegmentCache) Cleanup(ctx context.Context) (int64, error) {
	now := time.Now().UTC()

	if _, err := c.hot.Sweep(ctx, now); err != nil {
		c.logger.Warn("hot tier sweep failed", "error", err)
	}

	removed, err := c.durable.Sweep(ctx, now)
	if err != nil {
		return 0, core.NewDurableStoreError("cache cleanup failed", err)
	}
	return removed, nil
}

// Stats summarizes the durable tier for cost accounting.
func (c *SegmentCache) Stats(ctx context.Context) (*Stats, error) {
	reader, ok := c.durable.(StatsReader)
	if !ok {
		return nil, fmt.Errorf("durable store %T does not support stats", c.durable)
	}
	stats, err := reader.Stats(ctx)
	if err != nil {
		return nil, core.NewDurableStoreError("cache stats failed", err)
	}
	return stats, nil
}

// Close releases both tiers.
func (c *SegmentCache) Close() error {
	return errors.Join(c.hot.Close(), c.durable.Close())
}

// hotWindow caps the hot-tier lifetime of an entry at the freshness window
// without outliving the logical expiry.
func (c *SegmentCache) hotWindow(entry *Entry) time.Duration {
	window := c.hotFreshness
	if remaining := time.Until(entry.ExpiresAt); remaining < window {
		window = remaining
	}
	return window
}

// countUsage bumps the durable usage counter off the request path.
// Fire-and-forget: a lost increment costs nothing but slightly
// underestimated savings.
func (c *SegmentCache) countUsage(key string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), usageTimeout)
		defer cancel()
		if err := c.durable.IncrementUsage(ctx, key); err != nil {
			c.logger.Debug("usage increment failed", "key", key, "error", err)
		}
	}()
}
