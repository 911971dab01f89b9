// Package access answers the authorisation questions the services ask about
// the caller: whether they are a librarian, which member's records a listing
// is narrowed to, and whether a member profile may be read.
package access

import (
	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/entities"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID   uint              `json:"userId"`
	Username string            `json:"username"`
	Role     entities.UserRole `json:"role"`
	MemberID *uint             `json:"memberId"`
}

// PrincipalFromUser builds the principal for a stored credential.
func PrincipalFromUser(user *entities.User) Principal {
	return Principal{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		MemberID: user.MemberID,
	}
}

func (p Principal) IsLibrarian() bool {
	return p.Role == entities.UserRoleLibrarian
}

var errAccessDenied = apperr.Forbidden("Access denied")

// RequireLibrarian fails with FORBIDDEN unless p is a librarian.
func RequireLibrarian(p Principal) error {
	if !p.IsLibrarian() {
		return errAccessDenied
	}
	return nil
}

// MemberScope is the member filter a listing must apply. When Empty is set
// the caller may see nothing at all.
type MemberScope struct {
	MemberID *uint
	Empty    bool
}

// ScopeMemberFilter resolves the member filter for a listing. Librarians get
// what they asked for; members are always narrowed to themselves, whatever
// they requested.
func ScopeMemberFilter(p Principal, requested *uint) MemberScope {
	if p.IsLibrarian() {
		return MemberScope{MemberID: requested}
	}
	if p.MemberID == nil {
		return MemberScope{Empty: true}
	}
	own := *p.MemberID
	return MemberScope{MemberID: &own}
}

// CanViewMember fails with FORBIDDEN unless p is a librarian or is memberID.
func CanViewMember(p Principal, memberID uint) error {
	if p.IsLibrarian() {
		return nil
	}
	if p.MemberID != nil && *p.MemberID == memberID {
		return nil
	}
	return errAccessDenied
}
