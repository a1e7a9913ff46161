// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/clawncore/colabwize-backend/internal/shared/biztime"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// SchedulerManager manages all scheduled jobs through a single gocron
// instance.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
// It initializes gocron with the business timezone for cron expressions.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterSubscriptionExpiryJob registers the sweep that downgrades
// subscriptions whose entitlement cutoff passed without an expired
// webhook. Runs every 10 minutes, starting immediately, so a missed
// webhook leaves at most a short paid-access overhang.
func (m *SchedulerManager) RegisterSubscriptionExpiryJob(job BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			count, err := job.Execute(ctx)
			if err != nil {
				m.logger.Errorw("subscription expiry sweep failed", "error", err)
				return
			}
			if count > 0 {
				m.logger.Infow("subscription expiry sweep finished", "expired", count)
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("billing", "subscription-expiry"),
		gocron.WithName("subscription-expiry"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered subscription expiry job", "interval", "10m")
	return nil
}

// RegisterCycleRolloverJob registers the sweep that rebuilds snapshots
// whose billing cycle has ended, so idle accounts do not serve a stale
// cycle on their first request of the new period. Hourly is plenty; reads
// self-heal in between.
func (m *SchedulerManager) RegisterCycleRolloverJob(job BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			count, err := job.Execute(ctx)
			if err != nil {
				m.logger.Errorw("cycle rollover sweep failed", "error", err)
				return
			}
			if count > 0 {
				m.logger.Infow("cycle rollover sweep finished", "rolled_over", count)
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("billing", "cycle-rollover"),
		gocron.WithName("cycle-rollover"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered cycle rollover job", "interval", "1h")
	return nil
}

// Start begins executing registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler started", "jobs", len(m.scheduler.Jobs()))
}

// Stop shuts the scheduler down, waiting for running jobs.
func (m *SchedulerManager) Stop() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return
	}
	if err := m.scheduler.Shutdown(); err != nil {
		m.logger.Errorw("scheduler shutdown failed", "error", err)
	}
	m.started = false
	m.logger.Infow("scheduler stopped")
}
