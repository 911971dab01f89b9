// Package membership manages library members and the MEMBER logins bound to
// them.
package membership

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/library/internal/access"
	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/database/ledger"
	"github.com/mrlokans/library/internal/database/members"
	"github.com/mrlokans/library/internal/entities"
)

const MinPhoneLength = 7

var validate = validator.New()

// AuditLogger receives membership changes.
type AuditLogger interface {
	LogMembership(userID uint, action string, memberID uint, name string)
}

// MemberInput carries the fields of a new member. When Password is set a
// MEMBER login with username = email is created alongside.
type MemberInput struct {
	Name           string         `json:"name" binding:"required" label:"Name"`
	Email          string         `json:"email" binding:"required,email,max=254" label:"Email"`
	Phone          string         `json:"phone" binding:"required,min=7" label:"Phone"`
	Address        string         `json:"address"`
	MembershipDate *entities.Date `json:"membershipDate"`
	Password       string         `json:"password"`
}

// SessionRevoker ends the live sessions of a removed login.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID uint) error
}

type Page struct {
	Members []entities.Member
	Meta    entities.PageMeta
}

type Service struct {
	members    *members.Repository
	ledger     *ledger.Repository
	sessions   SessionRevoker
	audit      AuditLogger
	bcryptCost int
	logger     logrus.FieldLogger
}

func NewService(memberRepo *members.Repository, ledgerRepo *ledger.Repository, sessions SessionRevoker, audit AuditLogger, bcryptCost int, logger logrus.FieldLogger) *Service {
	return &Service{
		members:    memberRepo,
		ledger:     ledgerRepo,
		sessions:   sessions,
		audit:      audit,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Add registers a member, optionally with a login.
func (s *Service) Add(ctx context.Context, p access.Principal, in MemberInput) (*entities.Member, error) {
	if err := access.RequireLibrarian(p); err != nil {
		return nil, err
	}

	member := &entities.Member{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
	}
	switch {
	case member.Name == "":
		return nil, apperr.Validation("Name is required")
	case validate.Var(member.Email, "required,email,max=254") != nil:
		return nil, apperr.Validation("Valid email is required")
	case validate.Var(member.Phone, "min=7") != nil:
		return nil, apperr.Validationf("Phone must be at least %d characters", MinPhoneLength)
	}

	member.MembershipDate = entities.Today()
	if in.MembershipDate != nil && !in.MembershipDate.IsZero() {
		member.MembershipDate = *in.MembershipDate
	}

	var credential *entities.User
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password, s.bcryptCost)
		if err != nil {
			return nil, auth.PasswordError(err)
		}
		credential = &entities.User{Username: member.Email, PasswordHash: hash}
	}

	if err := s.members.Create(ctx, member, credential); err != nil {
		if errors.Is(err, members.ErrDuplicateEmail) || errors.Is(err, members.ErrDuplicateUsername) {
			return nil, apperr.Validation("Email already exists")
		}
		return nil, apperr.Internal(err, "failed to add member")
	}

	s.audit.LogMembership(p.UserID, "member_create", member.ID, member.Name)
	return member, nil
}

// List returns one page of members, newest first. Librarians only.
func (s *Service) List(ctx context.Context, p access.Principal, page, pageSize int) (*Page, error) {
	if err := access.RequireLibrarian(p); err != nil {
		return nil, err
	}

	page, pageSize = entities.NormalizePage(page, pageSize)
	items, total, err := s.members.List(ctx, pageSize, entities.Offset(page, pageSize))
	if err != nil {
		return nil, apperr.Internal(err, "failed to list members")
	}
	if items == nil {
		items = []entities.Member{}
	}
	return &Page{Members: items, Meta: entities.NewPageMeta(total, page, pageSize)}, nil
}

// Get returns a member. Members may only read their own profile.
func (s *Service) Get(ctx context.Context, p access.Principal, id uint) (*entities.Member, error) {
	if err := access.CanViewMember(p, id); err != nil {
		return nil, err
	}

	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, members.ErrMemberNotFound) {
			return nil, apperr.NotFound("Member not found")
		}
		return nil, apperr.Internal(err, "failed to fetch member")
	}
	return member, nil
}

// History returns every borrow record of a member, most recent first.
func (s *Service) History(ctx context.Context, p access.Principal, id uint) ([]entities.BorrowRecord, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}

	records, err := s.ledger.History(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "failed to fetch history")
	}
	return records, nil
}

// Delete removes a member and its login. Members with borrow history are kept.
func (s *Service) Delete(ctx context.Context, p access.Principal, id uint) error {
	if err := access.RequireLibrarian(p); err != nil {
		return err
	}

	loginID, err := s.members.Delete(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, members.ErrMemberNotFound):
			return apperr.NotFound("Member not found")
		case errors.Is(err, members.ErrMemberHasHistory):
			return apperr.Conflict("Member has borrow history and cannot be deleted")
		}
		return apperr.Internal(err, "failed to delete member")
	}

	if loginID != 0 {
		if err := s.sessions.RevokeUser(ctx, loginID); err != nil {
			s.logger.WithError(err).WithField("user_id", loginID).Warn("failed to revoke sessions of deleted member")
		}
	}

	s.audit.LogMembership(p.UserID, "member_delete", id, "")
	return nil
}
