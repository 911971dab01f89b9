package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/logging"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "library.db"),
	}, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	t.Run("migrates all tables", func(t *testing.T) {
		db := setupTestDB(t)

		for _, model := range []any{&entities.Book{}, &entities.Member{}, &entities.User{}, &entities.BorrowRecord{}, &entities.AuditEvent{}} {
			assert.True(t, db.DB.Migrator().HasTable(model))
		}
		assert.NoError(t, db.Ping(context.Background()))
	})

	t.Run("defaults to sqlite when driver is empty", func(t *testing.T) {
		db, err := NewDatabase(config.Database{Path: filepath.Join(t.TempDir(), "x.db")}, logging.Discard())
		require.NoError(t, err)
		defer db.Close()
		assert.Equal(t, config.DriverSQLite, db.Driver)
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		_, err := NewDatabase(config.Database{Driver: "oracle"}, logging.Discard())
		assert.ErrorContains(t, err, "unsupported database driver")
	})

	t.Run("requires dsn for server databases", func(t *testing.T) {
		_, err := NewDatabase(config.Database{Driver: config.DriverPostgres}, logging.Discard())
		assert.ErrorContains(t, err, "DATABASE_DSN")

		_, err = NewDatabase(config.Database{Driver: config.DriverMySQL}, logging.Discard())
		assert.ErrorContains(t, err, "DATABASE_DSN")
	})

	t.Run("enforces foreign keys", func(t *testing.T) {
		db := setupTestDB(t)
		err := db.DB.Create(&entities.BorrowRecord{
			BookID: 100, MemberID: 200,
			IssueDate: entities.Today(), DueDate: entities.Today(),
			Status: entities.BorrowStatusReturned,
		}).Error
		assert.Error(t, err)
	})
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "./a.db?_foreign_keys=on&_busy_timeout=5000", sqliteDSN("./a.db"))
	assert.Equal(t, "file:a.db?cache=shared&_foreign_keys=on&_busy_timeout=5000", sqliteDSN("file:a.db?cache=shared"))
}

func TestSeedSampleBooks(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	created, err := db.SeedSampleBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(SampleBooks), created)

	var orwell entities.Book
	require.NoError(t, db.DB.Where("isbn = ?", "9780451524935").First(&orwell).Error)
	assert.Equal(t, "1984", orwell.Title)
	assert.Equal(t, entities.BookStatusAvailable, orwell.Status)

	t.Run("does nothing when catalog is not empty", func(t *testing.T) {
		created, err := db.SeedSampleBooks(ctx)
		require.NoError(t, err)
		assert.Zero(t, created)
	})

	t.Run("leaves the package level catalog untouched", func(t *testing.T) {
		assert.Zero(t, SampleBooks[0].ID)
	})
}
