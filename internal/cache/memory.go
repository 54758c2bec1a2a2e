package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// memoryItem wraps an entry with the moment this tier must drop it.
// tierExpiry may be earlier than the entry's logical ExpiresAt when the hot
// tier applies a bounded freshness window.
type memoryItem struct {
	entry      Entry
	tierExpiry time.Time
}

// MemoryStore keeps entries in process memory. It is the default hot tier for
// single-instance deployments and the test double for both tiers.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem)}
}

// Get retrieves one entry by key.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	now := time.Now()

	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()

	if !ok || !item.tierExpiry.After(now) || item.entry.Expired(now) {
		return nil, ErrNotFound
	}

	e := item.entry
	return &e, nil
}

// Set stores a copy of the entry. A zero ttl falls back to the entry's own
// expiry.
func (s *MemoryStore) Set(_ context.Context, key string, entry *Entry, ttl time.Duration) error {
	tierExpiry := entry.ExpiresAt
	if ttl > 0 {
		tierExpiry = time.Now().Add(ttl)
		if entry.ExpiresAt.Before(tierExpiry) {
			tierExpiry = entry.ExpiresAt
		}
	}

	s.mu.Lock()
	s.items[key] = memoryItem{entry: *entry, tierExpiry: tierExpiry}
	s.mu.Unlock()
	return nil
}

// Delete removes one key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// DeleteByPrefix removes every key with the given prefix.
func (s *MemoryStore) DeleteByPrefix(_ context.Context, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			delete(s.items, key)
			removed++
		}
	}
	return removed, nil
}

// IncrementUsage bumps the usage counter for a key. Missing keys are ignored.
func (s *MemoryStore) IncrementUsage(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return nil
	}
	item.entry.UsageCount++
	s.items[key] = item
	return nil
}

// Sweep deletes expired entries and returns the count.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for key, item := range s.items {
		if item.entry.Expired(now) || !item.tierExpiry.After(now) {
			delete(s.items, key)
			removed++
		}
	}
	return removed, nil
}

// Stats summarizes live entries, so the memory store can stand in for a
// durable tier in tests.
func (s *MemoryStore) Stats(_ context.Context) (*Stats, error) {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{}
	for key, item := range s.items {
		if item.entry.Expired(now) {
			continue
		}
		stats.TotalEntries++
		stats.TotalAudioSeconds += item.entry.DurationSeconds
		stats.EstimatedCostSavings += entrySavings(item.entry.UsageCount, item.entry.SynthesisCost)
		stats.TopUsed = append(stats.TopUsed, UsageStat{
			Key:         key,
			SegmentType: item.entry.SegmentType,
			Language:    item.entry.Language,
			UsageCount:  item.entry.UsageCount,
		})
	}

	sort.Slice(stats.TopUsed, func(i, j int) bool {
		if stats.TopUsed[i].UsageCount != stats.TopUsed[j].UsageCount {
			return stats.TopUsed[i].UsageCount > stats.TopUsed[j].UsageCount
		}
		return stats.TopUsed[i].Key < stats.TopUsed[j].Key
	})
	if len(stats.TopUsed) > topUsedLimit {
		stats.TopUsed = stats.TopUsed[:topUsedLimit]
	}

	return stats, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
