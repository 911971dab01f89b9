package entities

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageMeta describes one page of a paginated listing.
type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// NormalizePage clamps a requested page and page size to sane values.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// NewPageMeta computes the meta block for a page of a listing of total items.
func NewPageMeta(total int64, page, pageSize int) PageMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PageMeta{Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}
}

// Offset returns the row offset of the first item on page.
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}
