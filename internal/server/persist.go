package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kevadb/keva/internal/storage/snapshot"
	"github.com/kevadb/keva/internal/store"
	"github.com/kevadb/keva/internal/telemetry/metric"
)

// Persister connects the store to the snapshot manager. It serves SAVE
// and BGSAVE, runs the periodic snapshot loop, and writes the final
// snapshot at shutdown.
//
// Writes are serialized: a snapshot in flight causes concurrent Save
// calls to wait and BGSAVE requests to coalesce into the running write.
type Persister struct {
	store   *store.Store
	manager *snapshot.Manager
	logger  *slog.Logger
	metrics *metric.Registry

	mu         sync.Mutex
	background atomic.Bool
}

func NewPersister(st *store.Store, mgr *snapshot.Manager, logger *slog.Logger, metrics *metric.Registry) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{
		store:   st,
		manager: mgr,
		logger:  logger,
		metrics: metrics,
	}
}

// Save takes a consistent view of the store and writes it to the
// snapshot file, replacing the previous one atomically.
func (p *Persister) Save() (snapshot.Info, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	startedAt := time.Now()
	entries := p.store.SnapshotView()
	info, err := p.manager.Write(entries)
	if err != nil {
		if p.metrics != nil {
			p.metrics.SnapshotFailures.Inc()
		}
		return snapshot.Info{}, fmt.Errorf("write snapshot: %w", err)
	}
	written := *info

	elapsed := time.Since(startedAt)
	if p.metrics != nil {
		p.metrics.SnapshotBytes.Set(float64(written.Size))
		p.metrics.SnapshotDuration.Observe(elapsed.Seconds())
	}
	p.logger.Info("snapshot written",
		"path", p.manager.Path(),
		"keys", written.KeyCount,
		"bytes", written.Size,
		"elapsed", elapsed,
	)
	return written, nil
}

// SaveInBackground starts an asynchronous Save. A second request while
// one is running is a no-op.
func (p *Persister) SaveInBackground() {
	if !p.background.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer p.background.Store(false)
		if _, err := p.Save(); err != nil {
			p.logger.Error("background snapshot failed", "error", err)
		}
	}()
}

// Run writes snapshots every interval until ctx is cancelled, then
// writes one final snapshot. Failures are logged and the loop keeps
// going; a dump failure must not take the server down.
func (p *Persister) Run(ctx context.Context, interval time.Duration) {
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				p.finalSave()
				return
			case <-ticker.C:
				if _, err := p.Save(); err != nil {
					p.logger.Error("periodic snapshot failed", "error", err)
				}
			}
		}
	}
	<-ctx.Done()
	p.finalSave()
}

func (p *Persister) finalSave() {
	if _, err := p.Save(); err != nil {
		p.logger.Error("final snapshot failed", "error", err)
	}
}

// Restore loads the snapshot file into the store. A missing file is a
// cold start, not an error.
func (p *Persister) Restore() error {
	entries, info, err := p.manager.Load()
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if info == nil {
		p.logger.Info("no snapshot found, starting empty", "path", p.manager.Path())
		return nil
	}
	p.store.Restore(entries)
	p.logger.Info("snapshot restored",
		"path", p.manager.Path(),
		"keys", p.store.Len(),
		"created_at", info.CreatedAt,
	)
	return nil
}

// SplitPath returns the snapshot directory and file name.
func (p *Persister) SplitPath() (dir, file string) {
	path := p.manager.Path()
	return filepath.Dir(path), filepath.Base(path)
}
