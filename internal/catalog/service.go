// Package catalog manages the books a library lends out.
//
// Writes are restricted to librarians. A book's status is never written here:
// it mirrors the lending ledger and only lending and reconciliation touch it.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mrlokans/library/internal/access"
	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/entities"
)

// MinISBNLength is the shortest ISBN the catalog accepts.
const MinISBNLength = 10

var validate = validator.New()

var errDuplicateISBN = apperr.Validation("ISBN already exists. Please use a different ISBN.")

// AuditLogger receives catalog changes.
type AuditLogger interface {
	LogCatalog(userID uint, action string, bookID uint, title string)
}

// BookInput carries the fields of a new book.
type BookInput struct {
	Title     string `json:"title" binding:"required" label:"Title"`
	Author    string `json:"author" binding:"required" label:"Author"`
	Category  string `json:"category"`
	Publisher string `json:"publisher"`
	ISBN      string `json:"isbn" binding:"required,min=10" label:"ISBN"`
}

// BookPatch carries a partial update. Nil fields are left unchanged.
type BookPatch struct {
	Title     *string `json:"title"`
	Author    *string `json:"author"`
	Category  *string `json:"category"`
	Publisher *string `json:"publisher"`
	ISBN      *string `json:"isbn" binding:"omitempty,min=10" label:"ISBN"`
}

// Page is one page of the catalog.
type Page struct {
	Books []entities.Book
	Meta  entities.PageMeta
}

type Service struct {
	repo  *books.Repository
	audit AuditLogger
}

func NewService(repo *books.Repository, audit AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// Add creates a book with status AVAILABLE.
func (s *Service) Add(ctx context.Context, p access.Principal, in BookInput) (*entities.Book, error) {
	if err := access.RequireLibrarian(p); err != nil {
		return nil, err
	}

	book := &entities.Book{
		Title:     strings.TrimSpace(in.Title),
		Author:    strings.TrimSpace(in.Author),
		Category:  strings.TrimSpace(in.Category),
		Publisher: strings.TrimSpace(in.Publisher),
		ISBN:      strings.TrimSpace(in.ISBN),
		Status:    entities.BookStatusAvailable,
	}
	switch {
	case book.Title == "":
		return nil, apperr.Validation("Title is required")
	case book.Author == "":
		return nil, apperr.Validation("Author is required")
	case book.ISBN == "":
		return nil, apperr.Validation("ISBN is required")
	}
	if err := validateISBN(book.ISBN); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, book); err != nil {
		if errors.Is(err, books.ErrDuplicateISBN) {
			return nil, errDuplicateISBN
		}
		return nil, apperr.Internal(err, "failed to add book")
	}

	s.audit.LogCatalog(p.UserID, "book_create", book.ID, book.Title)
	return book, nil
}

// Update applies a partial update to the book with the given id.
func (s *Service) Update(ctx context.Context, p access.Principal, id uint, patch BookPatch) (*entities.Book, error) {
	if err := access.RequireLibrarian(p); err != nil {
		return nil, err
	}

	changes := make(map[string]any)
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperr.Validation("Title cannot be empty")
		}
		changes["title"] = title
	}
	if patch.Author != nil {
		author := strings.TrimSpace(*patch.Author)
		if author == "" {
			return nil, apperr.Validation("Author cannot be empty")
		}
		changes["author"] = author
	}
	if patch.Category != nil {
		changes["category"] = strings.TrimSpace(*patch.Category)
	}
	if patch.Publisher != nil {
		changes["publisher"] = strings.TrimSpace(*patch.Publisher)
	}
	if patch.ISBN != nil {
		isbn := strings.TrimSpace(*patch.ISBN)
		if err := validateISBN(isbn); err != nil {
			return nil, err
		}
		changes["isbn"] = isbn
	}

	book, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		switch {
		case errors.Is(err, books.ErrBookNotFound):
			return nil, apperr.NotFound("Book not found")
		case errors.Is(err, books.ErrDuplicateISBN):
			return nil, errDuplicateISBN
		}
		return nil, apperr.Internal(err, "failed to update book")
	}

	s.audit.LogCatalog(p.UserID, "book_update", book.ID, book.Title)
	return book, nil
}

// Delete removes a book. Books that have ever been borrowed are kept so the
// ledger stays intact.
func (s *Service) Delete(ctx context.Context, p access.Principal, id uint) error {
	if err := access.RequireLibrarian(p); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, books.ErrBookNotFound):
			return apperr.NotFound("Book not found")
		case errors.Is(err, books.ErrBookHasHistory):
			return apperr.Conflict("Book has borrow history and cannot be deleted")
		}
		return apperr.Internal(err, "failed to delete book")
	}

	s.audit.LogCatalog(p.UserID, "book_delete", id, "")
	return nil
}

func (s *Service) Get(ctx context.Context, id uint) (*entities.Book, error) {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			return nil, apperr.NotFound("Book not found")
		}
		return nil, apperr.Internal(err, "failed to fetch book")
	}
	return book, nil
}

// List returns one page of the catalog, newest first.
func (s *Service) List(ctx context.Context, page, pageSize int) (*Page, error) {
	page, pageSize = entities.NormalizePage(page, pageSize)

	items, total, err := s.repo.List(ctx, pageSize, entities.Offset(page, pageSize))
	if err != nil {
		return nil, apperr.Internal(err, "failed to list books")
	}
	if items == nil {
		items = []entities.Book{}
	}
	return &Page{Books: items, Meta: entities.NewPageMeta(total, page, pageSize)}, nil
}

// Search matches title, author and category case-insensitively. An empty
// query returns the whole catalog ordered by title.
func (s *Service) Search(ctx context.Context, q books.SearchQuery) ([]entities.Book, error) {
	found, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, apperr.Internal(err, "failed to search books")
	}
	if found == nil {
		found = []entities.Book{}
	}
	return found, nil
}

func validateISBN(isbn string) error {
	if validate.Var(isbn, "min=10") != nil {
		return apperr.Validationf("ISBN must be at least %d characters", MinISBNLength)
	}
	return nil
}
