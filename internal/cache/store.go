package cache

import (
	"context"
	"errors"
	"time"

	"wakeaudio/internal/core"
)

// ErrNotFound is returned by Store.Get when a key does not exist or has expired.
var ErrNotFound = errors.New("cache: entry not found")

// Entry is the persisted form of one rendered segment. The durable tier owns
// the source of truth; the hot tier holds a derived, disposable copy.
//
// ExpiresAt is set at creation/refresh and never silently extended by reads.
// UsageCount is best-effort: a lost increment is acceptable, a blocked read
// is not.
type Entry struct {
	AudioURL        string           `json:"audio_url"`
	DurationSeconds float64          `json:"duration_seconds"`
	SourceText      string           `json:"source_text"`
	Language        string           `json:"language"`
	SegmentType     core.SegmentType `json:"segment_type"`
	Variant         string           `json:"variant"`
	SynthesisCost   float64          `json:"synthesis_cost"`
	UsageCount      int64            `json:"usage_count"`
	CreatedAt       time.Time        `json:"created_at"`
	ExpiresAt       time.Time        `json:"expires_at"`
}

// Expired reports whether the entry is past its expiry at the given instant.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// Store is one cache tier. Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves an entry. Returns ErrNotFound for missing or expired keys.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores an entry. The ttl bounds how long this tier keeps the copy;
	// the entry's ExpiresAt carries the logical durable expiry.
	Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes every key with the given prefix and returns how
	// many were removed. Hot tiers may be approximate; the durable tier is
	// authoritative.
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)

	// IncrementUsage bumps the usage counter for a key. Best-effort.
	IncrementUsage(ctx context.Context, key string) error

	// Sweep deletes every entry expired as of now and returns the count.
	// Idempotent and safe to run concurrently with reads and writes.
	Sweep(ctx context.Context, now time.Time) (int64, error)

	// Close releases any resources held by the store.
	Close() error
}

// Stats summarizes the durable tier for cost accounting.
type Stats struct {
	TotalEntries      int64       `json:"total_entries"`
	TotalAudioSeconds float64     `json:"total_audio_seconds"`
	TopUsed           []UsageStat `json:"top_used"`
	// EstimatedCostSavings is the synthesis spend avoided by reuse:
	// sum of max(0, usageCount-1) * synthesisCost per entry. The first use
	// of an entry is a genuine synthesis, not a saving.
	EstimatedCostSavings float64 `json:"estimated_cost_savings"`
}

// UsageStat is one entry in the top-used breakdown.
type UsageStat struct {
	Key         string           `json:"key"`
	SegmentType core.SegmentType `json:"segment_type"`
	Language    string           `json:"language"`
	UsageCount  int64            `json:"usage_count"`
}

// StatsReader is implemented by stores that can summarize their contents.
// The durable tier always implements it; hot tiers need not.
type StatsReader interface {
	Stats(ctx context.Context) (*Stats, error)
}

// entrySavings is the shared savings formula: never negative and never
// counting the first use.
func entrySavings(usageCount int64, synthesisCost float64) float64 {
	reuses := usageCount - 1
	if reuses <= 0 {
		return 0
	}
	return float64(reuses) * synthesisCost
}
