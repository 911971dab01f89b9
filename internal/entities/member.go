package entities

import "time"

type Member struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Email          string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone          string    `gorm:"size:32;not null" json:"phone"`
	Address        string    `gorm:"size:512" json:"address,omitempty"`
	MembershipDate Date      `gorm:"not null" json:"membershipDate"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (Member) TableName() string {
	return "members"
}
