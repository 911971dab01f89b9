package entities

import "time"

type BookStatus string

const (
	BookStatusAvailable BookStatus = "AVAILABLE"
	BookStatusIssued    BookStatus = "ISSUED"
)

// Book is a catalog entry. Status mirrors whether an ISSUED borrow record
// exists for the book and is only written by lending and reconciliation.
type Book struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"index;size:255;not null" json:"title"`
	Author    string     `gorm:"index;size:255;not null" json:"author"`
	Category  string     `gorm:"index;size:100" json:"category,omitempty"`
	Publisher string     `gorm:"size:255" json:"publisher,omitempty"`
	ISBN      string     `gorm:"column:isbn;uniqueIndex;size:20;not null" json:"isbn"`
	Status    BookStatus `gorm:"index;size:20;not null;default:AVAILABLE" json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (Book) TableName() string {
	return "books"
}

func (b *Book) IsAvailable() bool {
	return b.Status == BookStatusAvailable
}
