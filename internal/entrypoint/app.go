// Package entrypoint wires configuration, storage and services into a
// running application. The HTTP server and every CLI command build on App.
package entrypoint

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/catalog"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	auditRepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/ledger"
	"github.com/mrlokans/library/internal/database/members"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/lending"
	"github.com/mrlokans/library/internal/membership"
)

// App holds the storage handle and the services built on it.
type App struct {
	Config *config.Config
	Logger logrus.FieldLogger

	DB       *database.Database
	Ledger   *ledger.Repository
	Sessions auth.SessionStore

	Audit      *audit.Service
	Auth       *auth.Service
	Catalog    *catalog.Service
	Membership *membership.Service
	Lending    *lending.Service
}

// NewApp opens the database, runs migrations and builds every service.
// Call Close when done.
func NewApp(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*App, error) {
	db, err := database.NewDatabase(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var sessionDB *sql.DB
	if db.Driver == config.DriverSQLite {
		if sessionDB, err = db.DB.DB(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
	}
	sessions, err := auth.NewSessionStore(ctx, cfg.Redis, sessionDB)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	auditor := audit.NewService(auditRepo.NewRepository(db.DB), logger)
	ledgerRepo := ledger.NewRepository(db.DB)

	return &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Ledger:   ledgerRepo,
		Sessions: sessions,
		Audit:    auditor,
		Auth: auth.NewService(
			users.NewRepository(db.DB),
			auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry),
			sessions,
			auditor,
			cfg.Auth,
			logger,
		),
		Catalog:    catalog.NewService(books.NewRepository(db.DB), auditor),
		Membership: membership.NewService(members.NewRepository(db.DB), ledgerRepo, sessions, auditor, cfg.Auth.BcryptCost, logger),
		Lending:    lending.NewService(ledgerRepo, auditor),
	}, nil
}

// Seed ensures the admin librarian exists and, when enabled, fills an empty
// catalog with the sample books.
func (a *App) Seed(ctx context.Context) error {
	if a.Config.Seed.AdminUsername != "" {
		created, err := a.Auth.EnsureAdmin(ctx, a.Config.Seed.AdminUsername, a.Config.Seed.AdminPassword)
		if err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}
		if created && a.Config.Seed.AdminPassword == "admin123" {
			a.Logger.Warn("admin user created with the default password; change it with reset-password")
		}
	}

	if a.Config.Seed.SampleBooks {
		n, err := a.DB.SeedSampleBooks(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed sample books: %w", err)
		}
		if n > 0 {
			a.Logger.WithField("books", n).Info("seeded sample books")
		}
	}
	return nil
}

// Close flushes pending audit writes and releases connections.
func (a *App) Close() {
	a.Audit.Wait()

	if closer, ok := a.Sessions.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.Logger.WithError(err).Warn("error closing session store")
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.WithError(err).Warn("error closing database")
	}
}
