package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/catalog"
	"github.com/mrlokans/library/internal/database/books"
)

type BooksController struct {
	catalog *catalog.Service
}

func NewBooksController(catalog *catalog.Service) *BooksController {
	return &BooksController{catalog: catalog}
}

// GetAllBooks handles GET /api/books?page=&pageSize=
func (bc *BooksController) GetAllBooks(c *gin.Context) {
	page, pageSize := parsePage(c)

	result, err := bc.catalog.List(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, err, http.StatusConflict)
		return
	}
	c.JSON(http.StatusOK, PaginatedResponse{Data: result.Books, Meta: result.Meta})
}

// SearchBooks handles GET /api/books/search?title=&author=&category=
func (bc *BooksController) SearchBooks(c *gin.Context) {
	found, err := bc.catalog.Search(c.Request.Context(), books.SearchQuery{
		Title:    c.Query("title"),
		Author:   c.Query("author"),
		Category: c.Query("category"),
	})
	if err != nil {
		respondError(c, err, http.StatusConflict)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, http.StatusConflict)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (bc *BooksController) CreateBook(c *gin.Context) {
	var input catalog.BookInput
	if !bindJSON(c, &input) {
		return
	}

	book, err := bc.catalog.Add(c.Request.Context(), auth.GetPrincipal(c), input)
	if err != nil {
		respondError(c, err, http.StatusConflict)
		return
	}
	respondCreated(c, book)
}

func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var patch catalog.BookPatch
	if !bindJSON(c, &patch) {
		return
	}

	book, err := bc.catalog.Update(c.Request.Context(), auth.GetPrincipal(c), id, patch)
	if err != nil {
		respondError(c, err, http.StatusConflict)
		return
	}
	c.JSON(http.StatusOK, book)
}

// DeleteBook handles DELETE /api/books/:id. Books with borrow history are
// kept and the request fails with 409.
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.catalog.Delete(c.Request.Context(), auth.GetPrincipal(c), id); err != nil {
		respondError(c, err, http.StatusConflict)
		return
	}
	c.Status(http.StatusNoContent)
}
