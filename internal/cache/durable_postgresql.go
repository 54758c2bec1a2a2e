package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQLStore implements the durable tier on PostgreSQL.
type PostgreSQLStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLStore creates the durable tier on an existing connection pool.
// It creates the segment table if it doesn't exist.
func NewPostgreSQLStore(ctx context.Context, pool *pgxpool.Pool) (*PostgreSQLStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS segment_cache (
			key TEXT PRIMARY KEY,
			audio_url TEXT NOT NULL,
			duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
			source_text TEXT NOT NULL,
			language TEXT NOT NULL,
			segment_type TEXT NOT NULL,
			variant TEXT NOT NULL DEFAULT '',
			synthesis_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
			usage_count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create segment_cache table: %w", err)
	}

	if _, err := pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_segment_cache_expires_at ON segment_cache(expires_at)"); err != nil {
		return nil, fmt.Errorf("failed to create expiry index: %w", err)
	}

	return &PostgreSQLStore{pool: pool}, nil
}

// Get retrieves one entry by key. Entries past their expiry are treated as
// missing even before the next sweep removes them.
func (s *PostgreSQLStore) Get(ctx context.Context, key string) (*Entry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT audio_url, duration_seconds, source_text, language, segment_type,
			variant, synthesis_cost, usage_count, created_at, expires_at
		FROM segment_cache WHERE key = $1
	`, key)

	var e Entry
	err := row.Scan(&e.AudioURL, &e.DurationSeconds, &e.SourceText, &e.Language,
		&e.SegmentType, &e.Variant, &e.SynthesisCost, &e.UsageCount, &e.CreatedAt, &e.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
// not been reused yet.
func (s *PostgreSQLStore) Set(ctx context.Context, key string, entry *Entry, _ time.Duration) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO segment_cache (key, audio_url, duration_seconds, source_text,
			language, segment_type, variant, synthesis_cost, usage_count, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (key) DO UPDATE SET
			audio_url = EXCLUDED.audio_url,
			duration_seconds = EXCLUDED.duration_seconds,
			source_text = EXCLUDED.source_text,
			synthesis_cost = EXCLUDED.synthesis_cost,
			usage_count = EXCLUDED.usage_count,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`, key, entry.AudioURL, entry.DurationSeconds, entry.SourceText, entry.Language,
		string(entry.SegmentType), entry.Variant, entry.SynthesisCost, entry.UsageCount,
		entry.CreatedAt, entry.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to write segment entry: %w", err)
	}
	return nil
}

// Delete removes one key.
func (s *PostgreSQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM segment_cache WHERE key = $1", key); err != nil {
		return fmt.Errorf("failed to delete segment entry: %w", err)
	}
	return nil
}

// DeleteByPrefix removes every key with the given prefix. starts_with keeps
// the match collation-independent; a byte-range upper bound would also be
// rejected by the server's UTF-8 validation of text parameters.
func (s *PostgreSQLStore) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	result, err := s.pool.Exec(ctx,
		"DELETE FROM segment_cache WHERE starts_with(key, $1)", prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to delete segment entries by prefix: %w", err)
	}
	return result.RowsAffected(), nil
}

// IncrementUsage bumps the usage counter for a key.
func (s *PostgreSQLStore) IncrementUsage(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx,
		"UPDATE segment_cache SET usage_count = usage_count + 1 WHERE key = $1", key); err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// Sweep deletes all expired entries and returns the count.
func (s *PostgreSQLStore) Sweep(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.pool.Exec(ctx, "DELETE FROM segment_cache WHERE expires_at <= $1", now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired entries: %w", err)
	}
	return result.RowsAffected(), nil
}

// Stats summarizes live entries for cost accounting.
func (s *PostgreSQLStore) Stats(ctx context.Context) (*Stats, error) {
	now := time.Now()
	stats := &Stats{}

	row := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(duration_seconds), 0),
			COALESCE(SUM(GREATEST(usage_count - 1, 0) * synthesis_cost), 0)
		FROM segment_cache WHERE expires_at > $1
	`, now)
	if err := row.Scan(&stats.TotalEntries, &stats.TotalAudioSeconds, &stats.EstimatedCostSavings); err != nil {
		return nil, fmt.Errorf("failed to read cache stats: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT key, segment_type, language, usage_count
		FROM segment_cache WHERE expires_at > $1
		ORDER BY usage_count DESC, key ASC LIMIT $2
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

// Close is a no-op: the pool is owned by the storage layer.
func (s *PostgreSQLStore) Close() error {
	return nil
}
