package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/papersynth/papersynth/internal/infrastructure/monitoring"
	"github.com/papersynth/papersynth/pkg/logger"
)

// Sweeper periodically evicts workspaces that exceed the TTL and shrinks the
// root back under the size cap, oldest first.
type Sweeper struct {
	manager  *Manager
	ttl      time.Duration
	sizeCap  int64
	interval time.Duration
	log      logger.Logger
	metrics  *monitoring.Metrics

	now func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// SweepReport summarizes one sweep iteration.
type SweepReport struct {
	TTLEvicted     int
	SizeEvicted    int
	ReclaimedBytes int64
	RemainingBytes int64
}

// NewSweeper builds a sweeper over the manager's root. metrics may be nil.
func NewSweeper(m *Manager, ttl time.Duration, sizeCap int64, interval time.Duration, log logger.Logger, metrics *monitoring.Metrics) *Sweeper {
	return &Sweeper{
		manager:  m,
		ttl:      ttl,
		sizeCap:  sizeCap,
		interval: interval,
		log:      log,
		metrics:  metrics,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background sweep loop. One sweep runs immediately.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)
		ctx := context.Background()
		s.sweep(ctx)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep(ctx)
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for the current iteration.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := s.now()
	report, err := s.SweepOnce(ctx)
	if err != nil {
		s.log.Error(ctx, "eviction sweep failed", err)
		return
	}
	if s.metrics != nil {
		s.metrics.SweepDuration.Observe(s.now().Sub(start).Seconds())
	}
	if report.TTLEvicted+report.SizeEvicted > 0 {
		s.log.Info(ctx, "eviction sweep completed", logger.Fields{
			"ttl_evicted":     report.TTLEvicted,
			"size_evicted":    report.SizeEvicted,
			"reclaimed_bytes": report.ReclaimedBytes,
			"remaining_bytes": report.RemainingBytes,
		})
	}
}

// SweepOnce runs a single sweep iteration: first a TTL pass removing
// workspaces whose directory mtime is older than the TTL, then a size-cap
// pass removing the oldest remaining workspaces until total usage is at or
// below the cap.
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	entries, err := s.scan()
	if err != nil {
		return report, err
	}

	cutoff := s.now().Add(-s.ttl)
	survivors := entries[:0]
	for _, e := range entries {
		if e.modTime.Before(cutoff) {
			if s.evict(ctx, e, "ttl") {
				report.TTLEvicted++
				report.ReclaimedBytes += e.size
				continue
			}
		}
		survivors = append(survivors, e)
	}

	// Recompute after the TTL pass; sizes may be stale if files were
	// written during the walk.
	var total int64
	for i := range survivors {
		if size, err := dirSize(survivors[i].path); err == nil {
			survivors[i].size = size
		}
		total += survivors[i].size
	}

	if s.sizeCap > 0 && total > s.sizeCap {
		sort.Slice(survivors, func(i, j int) bool {
			return survivors[i].modTime.Before(survivors[j].modTime)
		})
		for _, e := range survivors {
			if total <= s.sizeCap {
				break
			}
			if s.evict(ctx, e, "size_cap") {
				report.SizeEvicted++
				report.ReclaimedBytes += e.size
				total -= e.size
			}
		}
	}

	report.RemainingBytes = total
	return report, nil
}

type sweepEntry struct {
	id      string
	path    string
	modTime time.Time
	size    int64
}

func (s *Sweeper) scan() ([]sweepEntry, error) {
	dirents, err := os.ReadDir(s.manager.Root())
	if err != nil {
		return nil, err
	}
	entries := make([]sweepEntry, 0, len(dirents))
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		path := filepath.Join(s.manager.Root(), d.Name())
		info, err := d.Info()
		if err != nil {
			continue
		}
		size, err := dirSize(path)
		if err != nil {
			s.log.Warn(context.Background(), "workspace size scan failed", logger.Fields{
				"workspace": d.Name(),
				"error":     err.Error(),
			})
			continue
		}
		entries = append(entries, sweepEntry{
			id:      d.Name(),
			path:    path,
			modTime: info.ModTime(),
			size:    size,
		})
	}
	return entries, nil
}

// evict removes one workspace. Failures are logged and the entry is kept so
// the next sweep retries it.
func (s *Sweeper) evict(ctx context.Context, e sweepEntry, pass string) bool {
	if err := os.RemoveAll(e.path); err != nil {
		s.log.Warn(ctx, "workspace eviction failed", logger.Fields{
			"workspace": e.id,
			"pass":      pass,
			"error":     err.Error(),
		})
		return false
	}
	if s.metrics != nil {
		s.metrics.RecordEviction(pass, e.size)
	}
	s.log.Info(ctx, "workspace evicted", logger.Fields{
		"workspace": e.id,
		"pass":      pass,
		"bytes":     e.size,
	})
	return true
}
