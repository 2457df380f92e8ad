// Package scheduler runs the periodic accrual sweep that keeps invoice
// interest, grace windows and overdue statuses current without waiting for a
// read or payment to touch them.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrSchedulerNotRunning is returned when a sweep is triggered on a stopped scheduler.
var ErrSchedulerNotRunning = errors.New("scheduler is not running")

// Sweeper refreshes every outstanding invoice and reports how many changed.
type Sweeper interface {
	RefreshAllOutstandingInvoices(ctx context.Context) (int, error)
}

// AccrualSchedulerConfig holds configuration for the accrual scheduler
type AccrualSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// SweepInterval is the time between accrual sweeps
	SweepInterval time.Duration

	// SweepTimeout is the maximum time a single sweep may run
	SweepTimeout time.Duration
}

// DefaultAccrualSchedulerConfig returns default configuration
func DefaultAccrualSchedulerConfig() AccrualSchedulerConfig {
	return AccrualSchedulerConfig{
		Enabled:       true,
		SweepInterval: time.Hour,
		SweepTimeout:  30 * time.Minute,
	}
}

// AccrualScheduler drives the interest accrual sweep on a fixed interval
type AccrualScheduler struct {
	sweeper   Sweeper
	logger    *zap.Logger
	config    AccrualSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewAccrualScheduler creates a new accrual scheduler
func NewAccrualScheduler(sweeper Sweeper, logger *zap.Logger, config AccrualSchedulerConfig) *AccrualScheduler {
	return &AccrualScheduler{
		sweeper: sweeper,
		logger:  logger,
		config:  config,
	}
}

// Start starts the accrual scheduler
func (s *AccrualScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Accrual scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runSweeps(ctx)

	s.logger.Info("Accrual scheduler started",
		zap.Duration("sweep_interval", s.config.SweepInterval),
		zap.Duration("sweep_timeout", s.config.SweepTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *AccrualScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Accrual scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Accrual scheduler stop timed out")
		return ctx.Err()
	}
}

// runSweeps executes the sweep on every interval tick
func (s *AccrualScheduler) runSweeps(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Accrual sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

// executeSweep runs a single accrual sweep with the configured timeout
func (s *AccrualScheduler) executeSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	startTime := time.Now()
	refreshed, err := s.sweeper.RefreshAllOutstandingInvoices(sweepCtx)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Accrual sweep failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Accrual sweep completed",
		zap.Duration("duration", duration),
		zap.Int("invoices_refreshed", refreshed),
	)
}

// TriggerImmediateSweep runs a sweep now without waiting for the next tick
func (s *AccrualScheduler) TriggerImmediateSweep(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Triggering immediate accrual sweep")

	go func() {
		defer s.wg.Done()
		s.executeSweep(ctx)
	}()

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *AccrualScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
