package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore implements the durable tier on SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the durable tier on an existing SQLite connection.
// It creates the segment table if it doesn't exist.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS segment_cache (
			key TEXT PRIMARY KEY,
			audio_url TEXT NOT NULL,
			duration_seconds REAL NOT NULL DEFAULT 0,
			source_text TEXT NOT NULL,
			language TEXT NOT NULL,
			segment_type TEXT NOT NULL,
			variant TEXT NOT NULL DEFAULT '',
			synthesis_cost REAL NOT NULL DEFAULT 0,
			usage_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create segment_cache table: %w", err)
	}

	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_segment_cache_expires_at ON segment_cache(expires_at)"); err != nil {
		return nil, fmt.Errorf("failed to create expiry index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get retrieves one entry by key. Entries past their expiry are treated as
// missing even before the next sweep removes them.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT audio_url, duration_seconds, source_text, language, segment_type,
			variant, synthesis_cost, usage_count, created_at, expires_at
		FROM segment_cache WHERE key = ?
	`, key)

	var e Entry
	err := row.Scan(&e.AudioURL, &e.DurationSeconds, &e.SourceText, &e.Language,
		&e.SegmentType, &e.Variant, &e.SynthesisCost, &e.UsageCount, &e.CreatedAt, &e.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read segment entry: %w", err)
	}

	if e.Expired(time.Now()) {
		return nil, ErrNotFound
	}

	return &e, nil
}

// Set upserts an entry. A refresh resets usage_count: the new rendering has
// not been reused yet. The tier ttl argument is ignored; the durable tier
// keeps entries until their logical ExpiresAt.
func (s *SQLiteStore) Set(ctx context.Context, key string, entry *Entry, _ time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO segment_cache (key, audio_url, duration_seconds, source_text,
			language, segment_type, variant, synthesis_cost, usage_count, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			audio_url = excluded.audio_url,
			duration_seconds = excluded.duration_seconds,
			source_text = excluded.source_text,
			synthesis_cost = excluded.synthesis_cost,
			usage_count = excluded.usage_count,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, key, entry.AudioURL, entry.DurationSeconds, entry.SourceText, entry.Language,
		string(entry.SegmentType), entry.Variant, entry.SynthesisCost, entry.UsageCount,
		entry.CreatedAt, entry.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to write segment entry: %w", err)
	}
	return nil
}

// Delete removes one key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM segment_cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete segment entry: %w", err)
	}
	return nil
}

// DeleteByPrefix removes every key with the given prefix.
func (s *SQLiteStore) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM segment_cache WHERE key >= ? AND key < ?", prefix, prefixUpperBound(prefix))
	if err != nil {
		return 0, fmt.Errorf("failed to delete segment entries by prefix: %w", err)
	}
	removed, _ := result.RowsAffected()
	return removed, nil
}

// IncrementUsage bumps the usage counter for a key.
func (s *SQLiteStore) IncrementUsage(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE segment_cache SET usage_count = usage_count + 1 WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// Sweep deletes all expired entries and returns the count.
func (s *SQLiteStore) Sweep(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM segment_cache WHERE expires_at <= ?", now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired entries: %w", err)
	}
	removed, _ := result.RowsAffected()
	return removed, nil
}

// Stats summarizes live entries for cost accounting.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	now := time.Now()
	stats := &Stats{}

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(duration_seconds), 0),
			COALESCE(SUM(MAX(usage_count - 1, 0) * synthesis_cost), 0)
		FROM segment_cache WHERE expires_at > ?
	`, now)
	if err := row.Scan(&stats.TotalEntries, &stats.TotalAudioSeconds, &stats.EstimatedCostSavings); err != nil {
		return nil, fmt.Errorf("failed to read cache stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, segment_type, language, usage_count
		FROM segment_cache WHERE expires_at > ?
		ORDER BY usage_count DESC, key ASC LIMIT ?
	`, now, topUsedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to read top used entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u UsageStat
		if err := rows.Scan(&u.Key, &u.SegmentType, &u.Language, &u.UsageCount); err != nil {
			return nil, fmt.Errorf("failed to scan top used entry: %w", err)
		}
		stats.TopUsed = append(stats.TopUsed, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate top used entries: %w", err)
	}

	return stats, nil
}

// Close is a no-op: the connection is owned by the storage layer.
func (s *SQLiteStore) Close() error {
	return nil
}

// prefixUpperBound returns the smallest string greater than every string with
// the given prefix, for range-scanning keys without LIKE escaping. SQLite
// only: it relies on the BINARY collation and produces a byte sequence that
// is not valid UTF-8, so it must never be sent to a backend that validates
// text parameters.
func prefixUpperBound(prefix string) string {
	return prefix + "\xff"
}
