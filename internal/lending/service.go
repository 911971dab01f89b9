// Package lending issues books to members, takes them back and lists the
// ledger of borrow records.
package lending

import (
	"context"
	"errors"
	"strings"

	"github.com/mrlokans/library/internal/access"
	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/database/ledger"
	"github.com/mrlokans/library/internal/entities"
)

// AuditLogger receives issue and return events.
type AuditLogger interface {
	LogLending(userID uint, action string, record *entities.BorrowRecord)
}

// IssueInput is a request to lend a book. A zero IssueDate means today.
type IssueInput struct {
	BookID    uint           `json:"bookId"`
	MemberID  uint           `json:"memberId"`
	IssueDate *entities.Date `json:"issueDate"`
	DueDate   *entities.Date `json:"dueDate"`
}

// ReturnInput is a request to close a borrow record. A zero ReturnDate means today.
type ReturnInput struct {
	BorrowID   uint           `json:"borrowId"`
	ReturnDate *entities.Date `json:"returnDate"`
}

// ListFilter narrows List. Status is matched case-insensitively.
type ListFilter struct {
	Status     string
	MemberID   *uint
	ActiveOnly bool
}

type Service struct {
	ledger *ledger.Repository
	audit  AuditLogger
	today  func() entities.Date
}

func NewService(repo *ledger.Repository, audit AuditLogger) *Service {
	return &Service{ledger: repo, audit: audit, today: entities.Today}
}

// Issue lends a book to a member. The book must exist and be available and
// the member must exist, checked in that order.
func (s *Service) Issue(ctx context.Context, p access.Principal, in IssueInput) (*entities.BorrowRecord, error) {
	if err := access.RequireLibrarian(p); err != nil {
		return nil, err
	}

	switch {
	case in.BookID < 1:
		return nil, apperr.Validation("Valid bookId is required")
	case in.MemberID < 1:
		return nil, apperr.Validation("Valid memberId is required")
	case in.DueDate == nil || in.DueDate.IsZero():
		return nil, apperr.Validation("Valid due date is required")
	}

	issueDate := s.today()
	if in.IssueDate != nil && !in.IssueDate.IsZero() {
		issueDate = *in.IssueDate
	}
	if in.DueDate.Before(issueDate) {
		return nil, apperr.Validation("Due date cannot be before issue date")
	}

	record, err := s.ledger.Issue(ctx, ledger.IssueParams{
		BookID:    in.BookID,
		MemberID:  in.MemberID,
		IssueDate: issueDate,
		DueDate:   *in.DueDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrBookNotFound):
			return nil, apperr.NotFound("Book not found")
		case errors.Is(err, ledger.ErrBookUnavailable):
			return nil, apperr.Conflict("Book is already issued")
		case errors.Is(err, ledger.ErrMemberNotFound):
			return nil, apperr.NotFound("Member not found")
		}
		return nil, apperr.Internal(err, "failed to issue book")
	}

	s.audit.LogLending(p.UserID, "book_issue", record)
	return record, nil
}

// Return closes an open borrow record and makes the book available again.
func (s *Service) Return(ctx context.Context, p access.Principal, in ReturnInput) (*entities.BorrowRecord, error) {
	if err := access.RequireLibrarian(p); err != nil {
		return nil, err
	}
	if in.BorrowID < 1 {
		return nil, apperr.Validation("Valid borrowId is required")
	}

	returnDate := s.today()
	if in.ReturnDate != nil && !in.ReturnDate.IsZero() {
		returnDate = *in.ReturnDate
	}

	record, err := s.ledger.Return(ctx, in.BorrowID, returnDate)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrRecordNotFound):
			return nil, apperr.NotFound("Borrow record not found")
		case errors.Is(err, ledger.ErrAlreadyReturned):
			return nil, apperr.Conflict("Book already returned")
		case errors.Is(err, ledger.ErrReturnBeforeIssue):
			return nil, apperr.Validation("Return date cannot be before issue date")
		}
		return nil, apperr.Internal(err, "failed to return book")
	}

	s.audit.LogLending(p.UserID, "book_return", record)
	return record, nil
}

// List returns borrow records, most recently issued first. Members only
// ever see their own records.
func (s *Service) List(ctx context.Context, p access.Principal, f ListFilter) ([]entities.BorrowRecord, error) {
	var status *entities.BorrowStatus
	if f.Status != "" {
		parsed, err := ParseStatus(f.Status)
		if err != nil {
			return nil, err
		}
		status = &parsed
	}

	scope := access.ScopeMemberFilter(p, f.MemberID)
	if scope.Empty {
		return []entities.BorrowRecord{}, nil
	}

	records, err := s.ledger.List(ctx, ledger.Filter{
		Status:     status,
		MemberID:   scope.MemberID,
		ActiveOnly: f.ActiveOnly,
		Today:      s.today(),
	})
	if err != nil {
		return nil, apperr.Internal(err, "failed to list borrow records")
	}
	return records, nil
}

// ParseStatus accepts ISSUED or RETURNED in any case.
func ParseStatus(raw string) (entities.BorrowStatus, error) {
	switch status := entities.BorrowStatus(strings.ToUpper(strings.TrimSpace(raw))); status {
	case entities.BorrowStatusIssued, entities.BorrowStatusReturned:
		return status, nil
	}
	return "", apperr.Validationf("Invalid status %q: expected ISSUED or RETURNED", raw)
}
