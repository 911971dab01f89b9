package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/lending"
)

// Lending reports CONFLICT (already issued, already returned) as 400.
const lendingConflictStatus = http.StatusBadRequest

type BorrowController struct {
	lending *lending.Service
}

func NewBorrowController(lending *lending.Service) *BorrowController {
	return &BorrowController{lending: lending}
}

// Dates arrive as strings so a malformed date is reported against its field
// instead of failing the whole body.
type issueRequest struct {
	BookID    uint   `json:"bookId" binding:"required"`
	MemberID  uint   `json:"memberId" binding:"required"`
	IssueDate string `json:"issueDate"`
	DueDate   string `json:"dueDate"`
}

type returnRequest struct {
	BorrowID   uint   `json:"borrowId" binding:"required"`
	ReturnDate string `json:"returnDate"`
}

// IssueBook handles POST /api/borrow/issue
func (bc *BorrowController) IssueBook(c *gin.Context) {
	var req issueRequest
	if !bindJSON(c, &req) {
		return
	}

	input := lending.IssueInput{BookID: req.BookID, MemberID: req.MemberID}
	if strings.TrimSpace(req.DueDate) != "" {
		due, err := entities.ParseDate(req.DueDate)
		if err != nil {
			respondBadRequest(c, "Valid due date is required")
			return
		}
		input.DueDate = &due
	}
	if strings.TrimSpace(req.IssueDate) != "" {
		issued, err := entities.ParseDate(req.IssueDate)
		if err != nil {
			respondBadRequest(c, "Valid issue date is required")
			return
		}
		input.IssueDate = &issued
	}

	record, err := bc.lending.Issue(c.Request.Context(), auth.GetPrincipal(c), input)
	if err != nil {
		respondError(c, err, lendingConflictStatus)
		return
	}
	respondCreated(c, record)
}

// ReturnBook handles POST /api/borrow/return
func (bc *BorrowController) ReturnBook(c *gin.Context) {
	var req returnRequest
	if !bindJSON(c, &req) {
		return
	}

	input := lending.ReturnInput{BorrowID: req.BorrowID}
	if strings.TrimSpace(req.ReturnDate) != "" {
		returned, err := entities.ParseDate(req.ReturnDate)
		if err != nil {
			respondBadRequest(c, "Valid return date is required")
			return
		}
		input.ReturnDate = &returned
	}

	record, err := bc.lending.Return(c.Request.Context(), auth.GetPrincipal(c), input)
	if err != nil {
		respondError(c, err, lendingConflictStatus)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ListRecords handles GET /api/borrow?status=&memberId=&activeOnly=
func (bc *BorrowController) ListRecords(c *gin.Context) {
	principal := auth.GetPrincipal(c)

	// Members are always scoped to themselves, so their memberId is ignored.
	var memberID *uint
	if principal.IsLibrarian() {
		var ok bool
		if memberID, ok = parseOptionalQueryID(c, "memberId"); !ok {
			return
		}
	}

	activeOnly := false
	if raw := c.Query("activeOnly"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondBadRequest(c, "invalid activeOnly")
			return
		}
		activeOnly = v
	}

	records, err := bc.lending.List(c.Request.Context(), principal, lending.ListFilter{
		Status:     c.Query("status"),
		MemberID:   memberID,
		ActiveOnly: activeOnly,
	})
	if err != nil {
		respondError(c, err, lendingConflictStatus)
		return
	}
	c.JSON(http.StatusOK, records)
}
