// Package scheduler runs the background housekeeping of the nutricalc API:
// it prunes the calculation history past its retention window, keeps the
// history gauge current and warns when the history is close to full.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/giygas/nutricalc-api/interfaces"
	"github.com/giygas/nutricalc-api/logging"
	"github.com/giygas/nutricalc-api/metrics"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Warn once the history holds this share of its limit
const capacityWarningRatio = 0.9

// Scheduler handles history housekeeping using dependency injection
type Scheduler struct {
	history   interfaces.HistoryStore
	retention time.Duration
	scheduler *gocron.Scheduler

	monitorInterval time.Duration
	stopOnce        sync.Once
	done            chan struct{}
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(history interfaces.HistoryStore, retention time.Duration) *Scheduler {
	return &Scheduler{
		history:         history,
		retention:       retention,
		scheduler:       gocron.NewScheduler(time.Local),
		monitorInterval: 1 * time.Hour,
		done:            make(chan struct{}),
	}
}

// Start runs a first prune, schedules the periodic jobs and starts
// capacity monitoring
func (s *Scheduler) Start() error {
	if s.retention <= 0 {
		return fmt.Errorf("history retention must be positive, got %s", s.retention)
	}

	// Initial pass
	s.pruneHistory()

	// Prune every hour, at most one run at a time
	_, err := s.scheduler.Every(1).Hours().WaitForSchedule().SingletonMode().Do(s.pruneHistory)
	if err != nil {
		logging.Error("Failed to schedule history pruning", "error", err)
		return fmt.Errorf("failed to schedule history pruning: %w", err)
	}

	_, err = s.scheduler.Every(1).Minutes().Do(s.refreshGauge)
	if err != nil {
		logging.Error("Failed to schedule history gauge refresh", "error", err)
		return fmt.Errorf("failed to schedule history gauge refresh: %w", err)
	}

	s.scheduler.StartAsync()

	// Start capacity monitoring
	s.startCapacityMonitoring()

	return nil
}

// Stop stops the scheduler and the monitoring goroutine. Safe to call twice.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.scheduler.Stop()
		close(s.done)
	})
}

// pruneHistory drops entries older than the retention window
func (s *Scheduler) pruneHistory() {
	start := time.Now()
	removed := s.history.PruneOlderThan(s.retention)
	s.refreshGauge()

	if removed > 0 {
		logging.Info("History pruned",
			"removed", removed,
			"remaining", s.history.Len(),
			"retention", s.retention.String(),
			"duration", time.Since(start).String(),
		)
	} else {
		logging.Debug("History pruning found nothing to remove", "retention", s.retention.String())
	}
}

func (s *Scheduler) refreshGauge() {
	metrics.HistoryEntries.Set(float64(s.history.Len()))
}

// checkCapacity reports whether the history is close to its limit
func (s *Scheduler) checkCapacity() bool {
	entries, limit := s.history.Len(), s.history.Limit()
	if limit <= 0 || float64(entries) < capacityWarningRatio*float64(limit) {
		return false
	}
	logging.Warn("History is close to its limit, oldest entries are being evicted",
		"entries", entries,
		"limit", limit,
	)
	return true
}

// startCapacityMonitoring watches the history size until Stop is called
func (s *Scheduler) startCapacityMonitoring() {
	go func() {
		ticker := time.NewTicker(s.monitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.checkCapacity()
			case <-s.done:
				return
			}
		}
	}()
}
