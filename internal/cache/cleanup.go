package cache

import (
	"context"
	"log/slog"
	"time"
)

// DefaultCleanupInterval is how often the cleanup job sweeps expired entries.
const DefaultCleanupInterval = 1 * time.Hour

// CleanupJob periodically sweeps expired durable entries. Cleanup is
// commutative with reads and writes on unrelated keys, so the job needs no
// coordination with request traffic.
type CleanupJob struct {
	cache    *SegmentCache
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	logger   *slog.Logger
}

// NewCleanupJob creates a cleanup job for the given cache. A non-positive
// interval falls back to DefaultCleanupInterval.
func NewCleanupJob(cache *SegmentCache, interval time.Duration, logger *slog.Logger) *CleanupJob {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupJob{
		cache:    cache,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// Start launches the sweep loop: one immediate run, then ticker intervals
// until Stop is called.
func (j *CleanupJob) Start() {
	go func() {
		defer close(j.done)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.run()

		for {
			select {
			case <-ticker.C:
				j.run()
			case <-j.stop:
				return
			}
		}
	}()
}

// Stop terminates the loop and waits for an in-flight sweep to finish.
func (j *CleanupJob) Stop() {
	close(j.stop)
	<-j.done
}

func (j *CleanupJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := j.cache.Cleanup(ctx)
	if err != nil {
		j.logger.Error("cache cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		j.logger.Info("swept expired segment entries", "removed", removed)
	}
}
