// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, dialect selection, migrations
//	├── seed.go          # Sample catalog
//	├── books/           # Catalog store
//	├── members/         # Membership store
//	├── users/           # Login credentials
//	├── ledger/          # Borrow records, issue/return transactions
//	└── audit/           # Audit events
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database, logger)
//
//	catalog := books.NewRepository(db.DB)
//	loans := ledger.NewRepository(db.DB)
//
//	book, err := catalog.GetByID(ctx, 123)
//	record, err := loans.Issue(ctx, ledger.IssueParams{BookID: 123, MemberID: 7, DueDate: due})
//
// The Database value is constructed once by the entrypoint and handed to
// every repository; nothing in this package keeps global state.
package database
