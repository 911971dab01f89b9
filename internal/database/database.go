package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/logging"
)

// openIssueIndex guarantees at most one ISSUED borrow record per book on
// dialects that support partial indexes.
const openIssueIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_borrow_records_open_book
	ON borrow_records (book_id) WHERE status = 'ISSUED'`

type Database struct {
	DB     *gorm.DB
	Driver config.DatabaseDriver
	logger logrus.FieldLogger
}

func NewDatabase(cfg config.Database, logger logrus.FieldLogger) (*Database, error) {
	if cfg.Driver == "" {
		cfg.Driver = config.DriverSQLite
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logging.GormLogger(logger),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// A single connection serialises SQLite transactions in-process so
		// concurrent writers queue instead of failing with SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	database := &Database{DB: db, Driver: cfg.Driver, logger: logger}

	if err := database.migrate(); err != nil {
		database.Close()
		return nil, err
	}

	logger.WithField("driver", cfg.Driver).Info("database initialized")

	return database, nil
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("database path is required for sqlite")
		}
		return sqlite.Open(sqliteDSN(cfg.Path)), nil
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for postgres")
		}
		return postgres.Open(cfg.DSN), nil
	case config.DriverMySQL:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for mysql")
		}
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func (d *Database) migrate() error {
	err := d.DB.AutoMigrate(
		&entities.Member{},
		&entities.User{},
		&entities.Book{},
		&entities.BorrowRecord{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	switch d.Driver {
	case config.DriverSQLite, config.DriverPostgres:
		if err := d.DB.Exec(openIssueIndex).Error; err != nil {
			return fmt.Errorf("failed to create open issue index: %w", err)
		}
	default:
		// MySQL has no partial indexes; the conditional status update in
		// the ledger is the only guard there.
		d.logger.Warn("partial unique index on open borrow records not supported by driver")
	}
	return nil
}

// Ping checks connectivity to the database.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
