// Package ledger stores borrow records and performs the issue and return
// transitions. Both transitions run in a single transaction and use
// conditional updates so that a concurrent writer can never double-issue a
// book or double-return a record.
package ledger

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

var (
	ErrBookNotFound      = errors.New("book not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrBookUnavailable   = errors.New("book is already issued")
	ErrRecordNotFound    = errors.New("borrow record not found")
	ErrAlreadyReturned   = errors.New("book already returned")
	ErrReturnBeforeIssue = errors.New("return date is before issue date")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type IssueParams struct {
	BookID    uint
	MemberID  uint
	IssueDate entities.Date
	DueDate   entities.Date
}

// Filter narrows List. Nil fields are not applied.
type Filter struct {
	Status     *entities.BorrowStatus
	MemberID   *uint
	ActiveOnly bool
	Today      entities.Date
}

// Issue creates an ISSUED record and flips the book to ISSUED. Checks run in
// order: book exists, book available, member exists.
func (r *Repository) Issue(ctx context.Context, p IssueParams) (*entities.BorrowRecord, error) {
	var recordID uint

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.Select("id", "status").First(&book, p.BookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		if !book.IsAvailable() {
			return ErrBookUnavailable
		}

		var members int64
		if err := tx.Model(&entities.Member{}).Where("id = ?", p.MemberID).Count(&members).Error; err != nil {
			return err
		}
		if members == 0 {
			return ErrMemberNotFound
		}

		flip := tx.Model(&entities.Book{}).
			Where("id = ? AND status = ?", p.BookID, entities.BookStatusAvailable).
			Update("status", entities.BookStatusIssued)
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected == 0 {
			return ErrBookUnavailable
		}

		record := entities.BorrowRecord{
			BookID:    p.BookID,
			MemberID:  p.MemberID,
			IssueDate: p.IssueDate,
			DueDate:   p.DueDate,
			Status:    entities.BorrowStatusIssued,
		}
		if err := tx.Create(&record).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrBookUnavailable
			}
			return err
		}
		recordID = record.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, recordID)
}

// Return marks an ISSUED record RETURNED and makes its book AVAILABLE again.
// A book that no longer exists does not block the return.
func (r *Repository) Return(ctx context.Context, borrowID uint, returnDate entities.Date) (*entities.BorrowRecord, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record entities.BorrowRecord
		if err := tx.First(&record, borrowID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return err
		}
		if record.Status != entities.BorrowStatusIssued {
			return ErrAlreadyReturned
		}
		if returnDate.Before(record.IssueDate) {
			return ErrReturnBeforeIssue
		}

		closed := tx.Model(&entities.BorrowRecord{}).
			Where("id = ? AND status = ?", borrowID, entities.BorrowStatusIssued).
			Updates(map[string]any{
				"status":      entities.BorrowStatusReturned,
				"return_date": returnDate,
			})
		if closed.Error != nil {
			return closed.Error
		}
		if closed.RowsAffected == 0 {
			return ErrAlreadyReturned
		}

		return tx.Model(&entities.Book{}).
			Where("id = ?", record.BookID).
			Update("status", entities.BookStatusAvailable).Error
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, borrowID)
}

// GetByID loads a record with its book and member.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.BorrowRecord, error) {
	var record entities.BorrowRecord
	err := r.db.WithContext(ctx).Preload("Book").Preload("Member").First(&record, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

// List returns matching records, most recently issued first.
func (r *Repository) List(ctx context.Context, f Filter) ([]entities.BorrowRecord, error) {
	query := r.db.WithContext(ctx).Model(&entities.BorrowRecord{}).Preload("Book").Preload("Member")

	if f.ActiveOnly {
		today := f.Today
		if today.IsZero() {
			today = entities.Today()
		}
		query = query.Where("status = ? AND due_date >= ?", entities.BorrowStatusIssued, today)
	} else if f.Status != nil {
		query = query.Where("status = ?", *f.Status)
	}
	if f.MemberID != nil {
		query = query.Where("member_id = ?", *f.MemberID)
	}

	records := []entities.BorrowRecord{}
	err := query.Order("issue_date DESC").Order("id DESC").Find(&records).Error
	return records, err
}

// History returns every record of a member with the borrowed book.
func (r *Repository) History(ctx context.Context, memberID uint) ([]entities.BorrowRecord, error) {
	records := []entities.BorrowRecord{}
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("member_id = ?", memberID).
		Order("issue_date DESC").Order("id DESC").
		Find(&records).Error
	return records, err
}

// ReconcileBookStatuses rewrites each book's cached status from the ledger
// and returns how many books were corrected.
func (r *Repository) ReconcileBookStatuses(ctx context.Context) (int64, error) {
	var fixed int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		open := tx.Model(&entities.BorrowRecord{}).
			Select("book_id").
			Where("status = ?", entities.BorrowStatusIssued)

		issued := tx.Model(&entities.Book{}).
			Where("status <> ? AND id IN (?)", entities.BookStatusIssued, open).
			Update("status", entities.BookStatusIssued)
		if issued.Error != nil {
			return issued.Error
		}

		open = tx.Model(&entities.BorrowRecord{}).
			Select("book_id").
			Where("status = ?", entities.BorrowStatusIssued)

		available := tx.Model(&entities.Book{}).
			Where("status <> ? AND id NOT IN (?)", entities.BookStatusAvailable, open).
			Update("status", entities.BookStatusAvailable)
		if available.Error != nil {
			return available.Error
		}

		fixed = issued.RowsAffected + available.RowsAffected
		return nil
	})
	return fixed, err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
