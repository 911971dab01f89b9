package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"
)

const TypeReconcileBookStatus = "reconcile_book_status"

// StatusReconciler rewrites cached book statuses from the borrow ledger.
type StatusReconciler interface {
	ReconcileBookStatuses(ctx context.Context) (int64, error)
}

// MaintenanceAuditor records the outcome of a maintenance run.
type MaintenanceAuditor interface {
	LogMaintenance(action, description string, err error)
}

// ReconcileBookStatusTask repairs books whose status disagrees with their
// open borrow records.
type ReconcileBookStatusTask struct{}

func (t ReconcileBookStatusTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        TypeReconcileBookStatus,
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ReconcileBookStatusProcessor creates a processor function for ReconcileBookStatusTask.
func ReconcileBookStatusProcessor(reconciler StatusReconciler, auditor MaintenanceAuditor, logger logrus.FieldLogger) backlite.QueueProcessor[ReconcileBookStatusTask] {
	return func(ctx context.Context, _ ReconcileBookStatusTask) error {
		if reconciler == nil {
			return fmt.Errorf("status reconciler not configured")
		}

		fixed, err := reconciler.ReconcileBookStatuses(ctx)
		if auditor != nil {
			auditor.LogMaintenance(TypeReconcileBookStatus, fmt.Sprintf("%d book statuses corrected", fixed), err)
		}
		if err != nil {
			return fmt.Errorf("reconcile book statuses: %w", err)
		}

		if fixed > 0 {
			logger.WithField("fixed", fixed).Warn("book statuses were out of sync with the ledger")
		} else {
			logger.Debug("book statuses consistent with ledger")
		}
		return nil
	}
}

func NewReconcileBookStatusQueue(reconciler StatusReconciler, auditor MaintenanceAuditor, logger logrus.FieldLogger) backlite.Queue {
	return backlite.NewQueue(ReconcileBookStatusProcessor(reconciler, auditor, logger))
}
