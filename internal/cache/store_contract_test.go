package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"wakeaudio/internal/core"
)

// runStoreContract exercises the Store interface semantics every tier must
// honor, so backend-specific SQL cannot drift from the in-memory reference.
func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		entry := testEntry(core.SegmentGreeting, "en", 0.001)
		if err := store.Set(ctx, "greeting:en:mon:h07", entry, time.Hour); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := store.Get(ctx, "greeting:en:mon:h07")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.AudioURL != entry.AudioURL || got.SegmentType != entry.SegmentType {
			t.Errorf("round trip mismatch: got %+v", got)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		if _, err := store.Get(ctx, "no:such:key"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("expired entry reads as missing", func(t *testing.T) {
		entry := testEntry(core.SegmentWeather, "en", 0.002)
		entry.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		if err := store.Set(ctx, "weather:en:t0:frost", entry, time.Hour); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if _, err := store.Get(ctx, "weather:en:t0:frost"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for expired entry, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.Set(ctx, "motivation:en:friday", testEntry(core.SegmentMotivation, "en", 0.001), time.Hour); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := store.Delete(ctx, "motivation:en:friday"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.Get(ctx, "motivation:en:friday"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		// Deleting a missing key is not an error.
		if err := store.Delete(ctx, "motivation:en:friday"); err != nil {
			t.Errorf("Delete of missing key returned error: %v", err)
		}
	})

	t.Run("delete by prefix", func(t *testing.T) {
		// Includes a multibyte key: prefix matching must be exact on the
		// text, whatever the backend's collation.
		matching := []string{"weather:de:t20:sonnig", "weather:de:t20:bewölkt"}
		surviving := []string{"weather:en:t20:sunny", "greeting:de:mon:h07"}
		for _, k := range append(append([]string{}, matching...), surviving...) {
			if err := store.Set(ctx, k, testEntry(core.SegmentWeather, "de", 0.002), time.Hour); err != nil {
				t.Fatalf("Set(%q) failed: %v", k, err)
			}
		}

		removed, err := store.DeleteByPrefix(ctx, "weather:de:")
		if err != nil {
			t.Fatalf("DeleteByPrefix failed: %v", err)
		}
		if removed != int64(len(matching)) {
			t.Errorf("expected %d removed, got %d", len(matching), removed)
		}
		for _, k := range matching {
			if _, err := store.Get(ctx, k); !errors.Is(err, ErrNotFound) {
				t.Errorf("key %q survived prefix delete: %v", k, err)
			}
		}
		for _, k := range surviving {
			if _, err := store.Get(ctx, k); err != nil {
				t.Errorf("key %q removed by unrelated prefix delete: %v", k, err)
			}
		}
	})

	t.Run("increment usage", func(t *testing.T) {
		entry := testEntry(core.SegmentHabitsSummary, "en", 0.001)
		if err := store.Set(ctx, "habits_summary:en:n1:feed", entry, time.Hour); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := store.IncrementUsage(ctx, "habits_summary:en:n1:feed"); err != nil {
			t.Fatalf("IncrementUsage failed: %v", err)
		}
		if err := store.IncrementUsage(ctx, "no:such:key"); err != nil {
			t.Errorf("IncrementUsage on missing key returned error: %v", err)
		}
		got, err := store.Get(ctx, "habits_summary:en:n1:feed")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.UsageCount != entry.UsageCount+1 {
			t.Errorf("expected usage count %d, got %d", entry.UsageCount+1, got.UsageCount)
		}
	})

	t.Run("sweep", func(t *testing.T) {
		stale := testEntry(core.SegmentGreeting, "de", 0.001)
		stale.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		if err := store.Set(ctx, "greeting:de:tue:h06", stale, time.Hour); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		if _, err := store.Sweep(ctx, time.Now().UTC()); err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}
		if _, err := store.Get(ctx, "greeting:de:tue:h06"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected stale entry swept, got %v", err)
		}
		// Live entries from earlier subtests survive.
		if _, err := store.Get(ctx, "greeting:en:mon:h07"); err != nil {
			t.Errorf("live entry removed by sweep: %v", err)
		}
	})
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestSQLiteStoreContract(t *testing.T) {
	runStoreContract(t, newTestSQLiteStore(t))
}
