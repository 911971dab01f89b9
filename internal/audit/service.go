// Package audit records who did what to the catalog, the membership roll and
// the lending ledger. Writes are asynchronous so that a slow audit table never
// delays a request.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo   *audit.Repository
	logger logrus.FieldLogger
	wg     sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, logger logrus.FieldLogger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Log records an audit event synchronously.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			s.logger.WithError(err).WithField("action", event.Action).Error("failed to log audit event")
		}
	}()
}

// Wait blocks until every pending asynchronous write has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogAuth records a login, logout or password event.
func (s *Service) LogAuth(userID uint, action, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		UserAgent: truncate(userAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}
	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogLending records an issue or return against a borrow record.
func (s *Service) LogLending(userID uint, action string, record *entities.BorrowRecord) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventLending,
		Action:      action,
		Description: fmt.Sprintf("book %d, member %d", record.BookID, record.MemberID),
		EntityType:  "borrow_record",
		EntityID:    &record.ID,
		Status:      entities.AuditStatusSuccess,
	}

	metadata := map[string]any{
		"bookId":    record.BookID,
		"memberId":  record.MemberID,
		"issueDate": record.IssueDate.String(),
		"dueDate":   record.DueDate.String(),
	}
	if record.ReturnDate != nil {
		metadata["returnDate"] = record.ReturnDate.String()
	}
	if mdBytes, err := json.Marshal(metadata); err == nil {
		event.Metadata = string(mdBytes)
	}

	s.LogAsync(event)
}

// LogCatalog records a change to a book.
func (s *Service) LogCatalog(userID uint, action string, bookID uint, title string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventCatalog,
		Action:      action,
		Description: truncate(title, 500),
		EntityType:  "book",
		EntityID:    &bookID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogMembership records a change to a member.
func (s *Service) LogMembership(userID uint, action string, memberID uint, name string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventMembership,
		Action:      action,
		Description: truncate(name, 500),
		EntityType:  "member",
		EntityID:    &memberID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogMaintenance records the outcome of a background maintenance job.
func (s *Service) LogMaintenance(action, description string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventMaintenance,
		Action:      action,
		Description: description,
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// Events retrieves paginated audit events, optionally narrowed to one user or type.
func (s *Service) Events(ctx context.Context, q audit.Query) ([]entities.AuditEvent, int64, error) {
	return s.repo.ListEvents(ctx, q)
}

// DeleteOldEvents removes events older than the retention period.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
