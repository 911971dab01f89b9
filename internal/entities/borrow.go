package entities

import "time"

type BorrowStatus string

const (
	BorrowStatusIssued   BorrowStatus = "ISSUED"
	BorrowStatusReturned BorrowStatus = "RETURNED"
)

// BorrowRecord is one lending transaction. It is created ISSUED, flipped to
// RETURNED exactly once and never deleted.
type BorrowRecord struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	BookID     uint         `gorm:"not null;index" json:"bookId"`
	MemberID   uint         `gorm:"not null;index" json:"memberId"`
	IssueDate  Date         `gorm:"not null;index" json:"issueDate"`
	DueDate    Date         `gorm:"not null" json:"dueDate"`
	ReturnDate *Date        `json:"returnDate"`
	Status     BorrowStatus `gorm:"size:20;not null;index" json:"status"`
	Book       *Book        `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT" json:"book,omitempty"`
	Member     *Member      `gorm:"foreignKey:MemberID;constraint:OnDelete:RESTRICT" json:"member,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

func (BorrowRecord) TableName() string {
	return "borrow_records"
}
