package dialect

import "context"

// Dialect names.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite3"
	Postgres = "postgres"
)

// ExecQuerier wraps the two database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for the
// persistence store.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// Normalize maps a database/sql driver name to its dialect. Aliases
// select between drivers of the same database: "pgx" for jackc/pgx,
// "sqlite" for modernc.org/sqlite and "sqlite3" for mattn/go-sqlite3.
func Normalize(alias string) string {
	switch alias {
	case "postgres", "postgresql", "pgx":
		return Postgres
	case "sqlite", "sqlite3":
		return SQLite
	default:
		return alias
	}
}

// Supported reports whether name, after normalisation, is a known dialect.
func Supported(name string) bool {
	switch Normalize(name) {
	case MySQL, SQLite, Postgres:
		return true
	}
	return false
}

// DriverName returns the database/sql driver registered for alias.
func DriverName(alias string) string {
	if alias == "postgresql" {
		return "postgres"
	}
	return alias
}
