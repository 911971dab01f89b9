// Package members provides database operations for library members and the
// credentials attached to them.
package members

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

var (
	ErrMemberNotFound    = errors.New("member not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrMemberHasHistory  = errors.New("member has borrow history")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a member and, when credential is non-nil, a login bound to
// it. Both rows are written in one transaction.
func (r *Repository) Create(ctx context.Context, member *entities.Member, credential *entities.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Member{}).Where("LOWER(email) = ?", strings.ToLower(member.Email)).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateEmail
		}

		if err := tx.Create(member).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateEmail
			}
			return err
		}

		if credential == nil {
			return nil
		}

		if err := tx.Model(&entities.User{}).Where("username = ?", credential.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateUsername
		}

		credential.MemberID = &member.ID
		credential.Role = entities.UserRoleMember
		if err := tx.Create(credential).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateUsername
			}
			return err
		}
		return nil
	})
}

func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Member, error) {
	var member entities.Member
	err := r.db.WithContext(ctx).First(&member, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

// List returns one page of members, newest first, plus the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]entities.Member, int64, error) {
	var members []entities.Member
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.Member{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&members).Error
	return members, total, err
}

// Delete removes a member and its credential. Members who have ever borrowed
// a book are kept so the ledger stays intact.
func (r *Repository) Delete(ctx context.Context, id uint) (loginID uint, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var member entities.Member
		if err := tx.Select("id").First(&member, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}

		var history int64
		if err := tx.Model(&entities.BorrowRecord{}).Where("member_id = ?", id).Count(&history).Error; err != nil {
			return err
		}
		if history > 0 {
			return ErrMemberHasHistory
		}

		var login entities.User
		err := tx.Select("id").Where("member_id = ?", id).First(&login).Error
		switch {
		case err == nil:
			loginID = login.ID
			if err := tx.Delete(&entities.User{}, login.ID).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := tx.Delete(&entities.Member{}, id).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return ErrMemberHasHistory
			}
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return loginID, nil
}
