// Package scheduler enqueues periodic maintenance tasks on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/tasks"
)

// Enqueuer adds a named task to the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, taskType string) (string, error)
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// MaintenanceScheduler periodically enqueues status reconciliation and audit
// cleanup.
type MaintenanceScheduler struct {
	queue  Enqueuer
	jobs   map[string]string // task type -> schedule
	logger logrus.FieldLogger

	cron      *cron.Cron
	entries   map[string]cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
}

// NewMaintenanceScheduler creates a scheduler. Empty schedules disable the
// corresponding job.
func NewMaintenanceScheduler(queue Enqueuer, cfg config.Scheduler, logger logrus.FieldLogger) *MaintenanceScheduler {
	jobs := map[string]string{}
	if cfg.ReconcileSchedule != "" {
		jobs[tasks.TypeReconcileBookStatus] = cfg.ReconcileSchedule
	}
	if cfg.AuditCleanupSchedule != "" {
		jobs[tasks.TypeCleanupAuditEvents] = cfg.AuditCleanupSchedule
	}

	return &MaintenanceScheduler{
		queue:   queue,
		jobs:    jobs,
		logger:  logger.WithField("component", "scheduler"),
		cron:    cron.New(cron.WithParser(parser)),
		entries: map[string]cron.EntryID{},
	}
}

// Start registers the jobs and starts the cron loop. It stops when ctx is
// cancelled or Stop is called.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	for taskType, schedule := range s.jobs {
		if err := ValidateSchedule(schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", schedule, taskType, err)
		}
		entryID, err := s.cron.AddFunc(schedule, func() {
			s.enqueue(taskType)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", taskType, err)
		}
		s.entries[taskType] = entryID
	}

	s.ctx = ctx
	s.cron.Start()
	s.isRunning = true

	for taskType, id := range s.entries {
		s.logger.WithFields(logrus.Fields{
			"task":     taskType,
			"schedule": s.jobs[taskType],
			"next_run": s.cron.Entry(id).Next,
		}).Info("maintenance job scheduled")
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for running jobs and stops the cron loop.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	for taskType, id := range s.entries {
		s.cron.Remove(id)
		delete(s.entries, taskType)
	}
	s.isRunning = false

	s.logger.Info("scheduler stopped")
}

// RunNow enqueues a task immediately, outside its schedule.
func (s *MaintenanceScheduler) RunNow(ctx context.Context, taskType string) (string, error) {
	return s.queue.Enqueue(ctx, taskType)
}

// IsRunning returns whether the scheduler is active.
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTimes returns the next planned run for each scheduled task type.
func (s *MaintenanceScheduler) NextRunTimes() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	next := make(map[string]time.Time, len(s.entries))
	for taskType, id := range s.entries {
		next[taskType] = s.cron.Entry(id).Next
	}
	return next
}

func (s *MaintenanceScheduler) enqueue(taskType string) {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}

	id, err := s.queue.Enqueue(ctx, taskType)
	if err != nil {
		s.logger.WithError(err).WithField("task", taskType).Error("failed to enqueue scheduled task")
		return
	}
	s.logger.WithFields(logrus.Fields{"task": taskType, "task_id": id}).Debug("scheduled task enqueued")
}
