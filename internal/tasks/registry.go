package tasks

import (
	"errors"

	"github.com/mikestefanello/backlite"
)

var ErrUnknownTaskType = errors.New("unknown task type")

// Types lists the task types that can be enqueued by name.
var Types = []string{TypeReconcileBookStatus, TypeCleanupAuditEvents}

// NewTask builds a task value for a named type.
func NewTask(taskType string, cfg Config) (backlite.Task, error) {
	switch taskType {
	case TypeReconcileBookStatus:
		return ReconcileBookStatusTask{}, nil
	case TypeCleanupAuditEvents:
		return CleanupAuditEventsTask{RetentionDays: cfg.AuditRetentionDays}, nil
	default:
		return nil, ErrUnknownTaskType
	}
}
