// Package books provides database operations for the catalog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	page, total, err := repo.List(ctx, 20, 0)
package books

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

var (
	ErrBookNotFound   = errors.New("book not found")
	ErrDuplicateISBN  = errors.New("isbn already exists")
	ErrBookHasHistory = errors.New("book has borrow history")
)

// Repository handles all catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SearchQuery holds optional case-insensitive substring filters. Empty
// fields are ignored; set fields are ANDed.
type SearchQuery struct {
	Title    string
	Author   string
	Category string
}

// Create inserts a new book. A duplicate ISBN yields ErrDuplicateISBN.
func (r *Repository) Create(ctx context.Context, book *entities.Book) error {
	db := r.db.WithContext(ctx)

	taken, err := isbnTaken(db, book.ISBN, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateISBN
	}

	if book.Status == "" {
		book.Status = entities.BookStatusAvailable
	}
	if err := db.Create(book).Error; err != nil {
		return translateWriteError(err)
	}
	return nil
}

// GetByID retrieves a book by its ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// Update applies a partial update. Keys are column names; the status
// column is never writable through the catalog.
func (r *Repository) Update(ctx context.Context, id uint, changes map[string]any) (*entities.Book, error) {
	delete(changes, "status")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.Select("id").First(&book, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		if isbn, ok := changes["isbn"].(string); ok {
			taken, err := isbnTaken(tx, isbn, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrDuplicateISBN
			}
		}

		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&entities.Book{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return translateWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a book that has never been borrowed.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.Select("id").First(&book, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		var history int64
		if err := tx.Model(&entities.BorrowRecord{}).Where("book_id = ?", id).Count(&history).Error; err != nil {
			return err
		}
		if history > 0 {
			return ErrBookHasHistory
		}

		if err := tx.Delete(&entities.Book{}, id).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return ErrBookHasHistory
			}
			return err
		}
		return nil
	})
}

// List returns one page of the catalog, newest first, plus the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]entities.Book, int64, error) {
	var books []entities.Book
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.Book{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&books).Error
	return books, total, err
}

// Search matches the query fields case-insensitively, ordered by title.
func (r *Repository) Search(ctx context.Context, q SearchQuery) ([]entities.Book, error) {
	query := r.db.WithContext(ctx).Model(&entities.Book{})
	query = whereContains(query, "title", q.Title)
	query = whereContains(query, "author", q.Author)
	query = whereContains(query, "category", q.Category)

	var books []entities.Book
	err := query.Order("title ASC").Order("id ASC").Find(&books).Error
	return books, err
}

// likeEscaper escapes LIKE wildcards with '!', which works as an ESCAPE
// character on every supported dialect.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func whereContains(query *gorm.DB, column, term string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" {
		return query
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	return query.Where("LOWER("+column+") LIKE ? ESCAPE '!'", pattern)
}

func isbnTaken(db *gorm.DB, isbn string, exceptID uint) (bool, error) {
	var count int64
	query := db.Model(&entities.Book{}).Where("isbn = ?", isbn)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// translateWriteError maps unique violations that slipped past the
// pre-check (concurrent writers) to ErrDuplicateISBN.
func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
		return ErrDuplicateISBN
	}
	return err
}
