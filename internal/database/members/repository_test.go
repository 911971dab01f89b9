package members

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/logging"
)

func setupTestDB(t *testing.T) (*database.Database, *Repository) {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "members.db"),
	}, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, NewRepository(db.DB)
}

func newMember(name, email string) *entities.Member {
	return &entities.Member{Name: name, Email: email, Phone: "5550100", MembershipDate: entities.Today()}
}

func TestRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates member without credential", func(t *testing.T) {
		db, repo := setupTestDB(t)

		member := newMember("Ann", "ann@example.com")
		require.NoError(t, repo.Create(ctx, member, nil))
		assert.NotZero(t, member.ID)

		var users int64
		db.DB.Model(&entities.User{}).Count(&users)
		assert.Zero(t, users)
	})

	t.Run("creates member with bound credential", func(t *testing.T) {
		db, repo := setupTestDB(t)

		member := newMember("Ann", "ann@example.com")
		credential := &entities.User{Username: "ann@example.com", PasswordHash: "hash"}
		require.NoError(t, repo.Create(ctx, member, credential))

		var stored entities.User
		require.NoError(t, db.DB.Where("username = ?", "ann@example.com").First(&stored).Error)
		require.NotNil(t, stored.MemberID)
		assert.Equal(t, member.ID, *stored.MemberID)
		assert.Equal(t, entities.UserRoleMember, stored.Role)
	})

	t.Run("rejects duplicate email case-insensitively", func(t *testing.T) {
		_, repo := setupTestDB(t)

		require.NoError(t, repo.Create(ctx, newMember("Ann", "ann@example.com"), nil))
		err := repo.Create(ctx, newMember("Other Ann", "ANN@example.com"), nil)

		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("rolls back member when credential username is taken", func(t *testing.T) {
		db, repo := setupTestDB(t)
		require.NoError(t, db.DB.Create(&entities.User{Username: "bob@example.com", PasswordHash: "x", Role: entities.UserRoleLibrarian}).Error)

		err := repo.Create(ctx, newMember("Bob", "bob@example.com"), &entities.User{Username: "bob@example.com", PasswordHash: "y"})
		assert.ErrorIs(t, err, ErrDuplicateUsername)

		var members int64
		db.DB.Model(&entities.Member{}).Count(&members)
		assert.Zero(t, members)
	})
}

func TestRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	_, repo := setupTestDB(t)

	member := newMember("Ann", "ann@example.com")
	require.NoError(t, repo.Create(ctx, member, nil))

	got, err := repo.GetByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestRepository_List(t *testing.T) {
	ctx := context.Background()
	_, repo := setupTestDB(t)

	require.NoError(t, repo.Create(ctx, newMember("Ann", "ann@example.com"), nil))
	require.NoError(t, repo.Create(ctx, newMember("Bob", "bob@example.com"), nil))
	require.NoError(t, repo.Create(ctx, newMember("Cid", "cid@example.com"), nil))

	members, total, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(3), total)
	require.Len(t, members, 2)
	assert.Equal(t, "Cid", members[0].Name)
}

func TestRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes member and its credential", func(t *testing.T) {
		db, repo := setupTestDB(t)
		member := newMember("Ann", "ann@example.com")
		require.NoError(t, repo.Create(ctx, member, &entities.User{Username: "ann@example.com", PasswordHash: "hash"}))

		loginID, err := repo.Delete(ctx, member.ID)
		require.NoError(t, err)
		assert.NotZero(t, loginID)

		var users int64
		db.DB.Model(&entities.User{}).Count(&users)
		assert.Zero(t, users)
		_, err = repo.GetByID(ctx, member.ID)
		assert.ErrorIs(t, err, ErrMemberNotFound)
	})

	t.Run("member without a login", func(t *testing.T) {
		_, repo := setupTestDB(t)
		member := newMember("Bob", "bob@example.com")
		require.NoError(t, repo.Create(ctx, member, nil))

		loginID, err := repo.Delete(ctx, member.ID)
		require.NoError(t, err)
		assert.Zero(t, loginID)
	})

	t.Run("refuses to delete member with history", func(t *testing.T) {
		db, repo := setupTestDB(t)
		member := newMember("Ann", "ann@example.com")
		require.NoError(t, repo.Create(ctx, member, nil))

		book := &entities.Book{Title: "1984", Author: "George Orwell", ISBN: "9780451524935", Status: entities.BookStatusIssued}
		require.NoError(t, db.DB.Create(book).Error)
		require.NoError(t, db.DB.Create(&entities.BorrowRecord{
			BookID: book.ID, MemberID: member.ID,
			IssueDate: entities.Today(), DueDate: entities.Today(),
			Status: entities.BorrowStatusIssued,
		}).Error)

		_, err := repo.Delete(ctx, member.ID)
		assert.ErrorIs(t, err, ErrMemberHasHistory)
	})

	t.Run("returns not found for missing member", func(t *testing.T) {
		_, repo := setupTestDB(t)
		_, err := repo.Delete(ctx, 5)
		assert.ErrorIs(t, err, ErrMemberNotFound)
	})
}
