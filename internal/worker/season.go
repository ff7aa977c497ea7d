// Package worker schedules the weekly season rotation independently of
// the HTTP layer.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/devndesk/DevReady/internal/config"
)

// Rotator executes one season sweep. Implemented by the league service.
type Rotator interface {
	RunSeasonRotation(ctx context.Context) error
}

// SeasonWorker fires the season rotation once per weekly cadence
// (default Monday 00:00 local). At most one sweep runs at a time, even
// when a manual trigger overlaps the schedule.
type SeasonWorker struct {
	rotator Rotator
	config  *config.SeasonConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
	sweepMu sync.Mutex
	now     func() time.Time
}

// NewSeasonWorker creates a new season worker
func NewSeasonWorker(rotator Rotator, cfg *config.SeasonConfig, logger *slog.Logger) *SeasonWorker {
	return &SeasonWorker{
		rotator: rotator,
		config:  cfg,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		now:     time.Now,
	}
}

// Start begins the background schedule
func (w *SeasonWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	weekday, err := ParseWeekday(w.config.Weekday)
	if err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

	w.logger.Info("season worker started", "weekday", weekday.String(), "hour", w.config.Hour)

	go w.run(ctx, weekday)
	return nil
}

// Stop stops the background schedule
func (w *SeasonWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("season worker stopped")
	return nil
}

// run is the main scheduling loop
func (w *SeasonWorker) run(ctx context.Context, weekday time.Weekday) {
	defer close(w.doneCh)

	for {
		next := NextRun(w.now(), weekday, w.config.Hour)
		w.logger.Info("next season rotation scheduled", "at", next)

		timer := time.NewTimer(next.Sub(w.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-w.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			w.sweep(ctx)
		}
	}
}

// sweep runs one rotation, skipping if another sweep is in flight
func (w *SeasonWorker) sweep(ctx context.Context) {
	if !w.sweepMu.TryLock() {
		w.logger.Warn("season rotation already in progress, skipping")
		return
	}
	defer w.sweepMu.Unlock()

	if err := w.rotator.RunSeasonRotation(ctx); err != nil {
		w.logger.Error("season rotation failed", "error", err)
	}
}

// RunOnce triggers a single sweep outside the schedule
func (w *SeasonWorker) RunOnce(ctx context.Context) {
	w.sweep(ctx)
}

// IsRunning returns whether the worker is currently running
func (w *SeasonWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// NextRun computes the first instant strictly after `after` that falls
// on the given weekday at the given local hour.
func NextRun(after time.Time, weekday time.Weekday, hour int) time.Time {
	candidate := time.Date(after.Year(), after.Month(), after.Day(), hour, 0, 0, 0, after.Location())
	daysAhead := (int(weekday) - int(after.Weekday()) + 7) % 7
	candidate = candidate.AddDate(0, 0, daysAhead)
	if !candidate.After(after) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// ParseWeekday parses a weekday name such as "Monday"
func ParseWeekday(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid weekday %q", name)
}
