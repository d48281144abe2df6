package store

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultSweepInterval is the pause between sweep cycles.
	DefaultSweepInterval = 100 * time.Millisecond

	// DefaultSweepSampleSize bounds how many keys one batch inspects.
	DefaultSweepSampleSize = 20

	// maxBatchesPerCycle bounds the continuation loop when a cycle keeps
	// finding mostly-expired samples.
	maxBatchesPerCycle = 16

	// continueRatio: a batch that finds more than this share of its sample
	// expired triggers another batch within the same cycle.
	continueRatio = 0.25
)

// Sweeper actively evicts expired keys in the background. It samples a
// bounded number of keys from the TTL index per batch and removes the
// expired ones one key at a time, so it never holds any lock across a
// whole pass and foreground commands wait at most for one key's removal.
type Sweeper struct {
	store      *Store
	interval   time.Duration
	sampleSize int
	logger     *slog.Logger

	// OnCycle, when set, receives per-cycle stats. The server wires
	// metrics through it.
	OnCycle func(sampled, expired int)

	cursor int
}

// NewSweeper creates a sweeper for the given store.
func NewSweeper(s *Store, interval time.Duration, sampleSize int, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if sampleSize <= 0 {
		sampleSize = DefaultSweepSampleSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:      s,
		interval:   interval,
		sampleSize: sampleSize,
		logger:     logger,
	}
}

// Run sweeps until ctx is cancelled. It is meant to be started as one
// long-lived goroutine next to the connection sessions.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sampled, expired := w.Cycle()
			if expired > 0 {
				w.logger.Debug("sweep cycle",
					"sampled", sampled,
					"expired", expired,
					"ttl_keys", w.store.expires.Count())
			}
			if w.OnCycle != nil {
				w.OnCycle(sampled, expired)
			}
		}
	}
}

// Cycle runs one sweep cycle and returns how many keys were sampled and
// how many expired entries were removed. Exported so tests can drive the
// sweeper without timing dependence.
func (w *Sweeper) Cycle() (sampled, expired int) {
	now := w.store.nowMillis()

	for batch := 0; batch < maxBatchesPerCycle; batch++ {
		candidates := make([]string, 0, w.sampleSize)

		// Collect under the index's read locks only; deletions happen
		// afterwards, one shard lock at a time.
		n := w.store.expires.Sample(w.cursor, w.sampleSize, func(key string, deadline int64) bool {
			if deadline <= now {
				candidates = append(candidates, key)
			}
			return true
		})
		w.cursor++
		sampled += n

		removed := 0
		for _, key := range candidates {
			if w.store.expireIfDue(key) {
				removed++
			}
		}
		expired += removed

		if n == 0 || float64(removed) < continueRatio*float64(n) {
			return sampled, expired
		}
	}
	return sampled, expired
}
