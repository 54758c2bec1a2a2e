package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"wakeaudio/internal/core"
)

// faultStore fails every operation. Stands in for an unreachable tier.
type faultStore struct{}

var errTierDown = errors.New("tier unreachable")

func (faultStore) Get(context.Context, string) (*Entry, error) { return nil, errTierDown }

func (faultStore) Set(context.Context, string, *Entry, time.Duration) error {
	return errTierDown
}

func (faultStore) Delete(context.Context, string) error { return errTierDown }

func (faultStore) DeleteByPrefix(context.Context, string) (int64, error) {
	return 0, errTierDown
}

func (faultStore) IncrementUsage(context.Context, string) error { return errTierDown }

func (faultStore) Sweep(context.Context, time.Time) (int64, error) {
	return 0, errTierDown
}

func (faultStore) Close() error { return nil }

func newTestCache(t *testing.T, hot, durable Store) *SegmentCache {
	t.Helper()
	c, err := New(hot, durable)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestSegmentCacheRequiresDurable(t *testing.T) {
	if _, err := New(NewMemoryStore(), nil); err == nil {
		t.Fatal("expected error for nil durable store")
	}
}

func TestSegmentCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, NewMemoryStore(), NewMemoryStore())
	key := GreetingKey("en", time.Monday, 7)

	if _, found, err := c.Get(ctx, key); err != nil || found {
		t.Fatalf("expected clean miss, got found=%v err=%v", found, err)
	}

	entry := testEntry(core.SegmentGreeting, "en", 0.001)
	if err := c.Set(ctx, key, entry, "30 days"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if entry.ExpiresAt.Sub(entry.CreatedAt) != 30*24*time.Hour {
		t.Errorf("expected 30 day expiry, got %v", entry.ExpiresAt.Sub(entry.CreatedAt))
	}

	got, found, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("expected hit after Set")
	}
	if got.AudioURL != entry.AudioURL {
		t.Errorf("expected url %q, got %q", entry.AudioURL, got.AudioURL)
	}
}

func TestSegmentCacheRejectsBadTTL(t *testing.T) {
	c := newTestCache(t, NewMemoryStore(), NewMemoryStore())
	err := c.Set(context.Background(), MotivationKey("en", "standard"),
		testEntry(core.SegmentMotivation, "en", 0.001), "7 weeks")
	if err == nil {
		t.Fatal("expected error for non-whitelisted ttl unit")
	}
	var ee *core.EngineError
	if !errors.As(err, &ee) || ee.Type != core.ErrorTypeInvalidRequest {
		t.Errorf("expected invalid_request_error, got %v", err)
	}
}

func TestSegmentCacheHotOutageDegrades(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryStore()
	c := newTestCache(t, faultStore{}, durable)
	key := WeatherKey("en", 21, "sunny")

	// Write succeeds: durable is the system of record, the hot fault only logs.
	if err := c.Set(ctx, key, testEntry(core.SegmentWeather, "en", 0.002), "7 days"); err != nil {
		t.Fatalf("Set with failing hot tier returned error: %v", err)
	}

	// Read degrades to the durable tier.
	got, found, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get with failing hot tier returned error: %v", err)
	}
	if !found || got == nil {
		t.Fatal("expected durable hit despite hot outage")
	}

	if _, err := c.Cleanup(ctx); err != nil {
		t.Errorf("Cleanup with failing hot tier returned error: %v", err)
	}
	if err := c.Invalidate(ctx, key); err != nil {
		t.Errorf("Invalidate with failing hot tier returned error: %v", err)
	}
}

func TestSegmentCacheDurableOutageIsFatal(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, NewMemoryStore(), faultStore{})
	key := GreetingKey("en", time.Monday, 7)

	assertDurableError := func(t *testing.T, err error) {
		t.Helper()
		var ee *core.EngineError
		if !errors.As(err, &ee) || ee.Type != core.ErrorTypeDurableStore {
			t.Errorf("expected durable_store_error, got %v", err)
		}
	}

	t.Run("get", func(t *testing.T) {
		_, _, err := c.Get(ctx, key)
		assertDurableError(t, err)
	})
	t.Run("set", func(t *testing.T) {
		err := c.Set(ctx, key, testEntry(core.SegmentGreeting, "en", 0.001), "30 days")
		assertDurableError(t, err)
	})
	t.Run("invalidate", func(t *testing.T) {
		assertDurableError(t, c.Invalidate(ctx, key))
	})
	t.Run("cleanup", func(t *testing.T) {
		_, err := c.Cleanup(ctx)
		assertDurableError(t, err)
	})
}

func TestSegmentCacheRewarmsHotTier(t *testing.T) {
	ctx := context.Background()
	hot := NewMemoryStore()
	durable := NewMemoryStore()
	c := newTestCache(t, hot, durable)
	key := MotivationKey("de", "monday")

	// Seed the durable tier directly, bypassing the hot tier.
	entry := testEntry(core.SegmentMotivation, "de", 0.003)
	if err := durable.Set(ctx, key.String(), entry, time.Hour); err != nil {
		t.Fatalf("durable Set failed: %v", err)
	}

	if _, found, err := c.Get(ctx, key); err != nil || !found {
		t.Fatalf("expected durable hit, got found=%v err=%v", found, err)
	}

	// The hit must have been written back to the hot tier.
	if _, err := hot.Get(ctx, key.String()); err != nil {
		t.Errorf("expected hot tier re-warm, got %v", err)
	}
}

func TestSegmentCacheInvalidateByPrefix(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, NewMemoryStore(), NewMemoryStore())

	for _, variant := range []string{"standard", "weekend", "monday"} {
		key := MotivationKey("en", variant)
		if err := c.Set(ctx, key, testEntry(core.SegmentMotivation, "en", 0.001), "30 days"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	greeting := GreetingKey("en", time.Monday, 7)
	if err := c.Set(ctx, greeting, testEntry(core.SegmentGreeting, "en", 0.001), "30 days"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	removed, err := c.InvalidateByPrefix(ctx, Prefix(core.SegmentMotivation, "en"))
	if err != nil {
		t.Fatalf("InvalidateByPrefix failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("expected 3 removed, got %d", removed)
	}

	if _, found, err := c.Get(ctx, greeting); err != nil || !found {
		t.Errorf("greeting entry should survive motivation invalidation, found=%v err=%v", found, err)
	}
}

func TestSegmentCacheCleanupRemovesExpired(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryStore()
	c := newTestCache(t, NewMemoryStore(), durable)

	stale := testEntry(core.SegmentWeather, "en", 0.002)
	stale.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	if err := durable.Set(ctx, "weather:en:t20:sunny", stale, time.Hour); err != nil {
		t.Fatalf("durable Set failed: %v", err)
	}
	if err := c.Set(ctx, GreetingKey("en", time.Monday, 7),
		testEntry(core.SegmentGreeting, "en", 0.001), "30 days"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	removed, err := c.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 expired entry removed, got %d", removed)
	}

	if _, found, err := c.Get(ctx, GreetingKey("en", time.Monday, 7)); err != nil || !found {
		t.Errorf("live entry removed by cleanup, found=%v err=%v", found, err)
	}
}

func TestSegmentCacheStats(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryStore()
	c := newTestCache(t, NewMemoryStore(), durable)

	entry := testEntry(core.SegmentGreeting, "en", 0.004)
	entry.UsageCount = 3
	if err := durable.Set(ctx, "greeting:en:mon:h07", entry, time.Hour); err != nil {
		t.Fatalf("durable Set failed: %v", err)
	}

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalEntries != 1 {
		t.Errorf("expected 1 entry, got %d", stats.TotalEntries)
	}
	if want := 2 * 0.004; !almostEqual(stats.EstimatedCostSavings, want) {
		t.Errorf("expected savings %v, got %v", want, stats.EstimatedCostSavings)
	}
}
