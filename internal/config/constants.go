package config

const (
	// DefaultDatabasePath is the default path for the SQLite database.
	DefaultDatabasePath = "./library.db"

	// DefaultPort matches the port the web client expects.
	DefaultPort = 5000
)

type DatabaseDriver string

const (
	DriverSQLite   DatabaseDriver = "sqlite"
	DriverPostgres DatabaseDriver = "postgres"
	DriverMySQL    DatabaseDriver = "mysql"
)
