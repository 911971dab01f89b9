package entities

import "time"

type UserRole string

const (
	UserRoleLibrarian UserRole = "LIBRARIAN"
	UserRoleMember    UserRole = "MEMBER"
)

func (r UserRole) Valid() bool {
	return r == UserRoleLibrarian || r == UserRoleMember
}

// User is a login credential. Member credentials point at exactly one
// member; librarian credentials have none.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"userId"`
	Username     string     `gorm:"uniqueIndex;size:255;not null" json:"username"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         UserRole   `gorm:"size:20;not null" json:"role"`
	MemberID     *uint      `gorm:"uniqueIndex" json:"memberId"`
	Member       *Member    `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"-"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
