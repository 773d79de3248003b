// Package dialect names the databases recordgen maps and defines the
// driver contract the store writes through.
//
// A dialect is named after its canonical database/sql driver:
//
//	dialect.Postgres // "postgres"
//	dialect.MySQL    // "mysql"
//	dialect.SQLite   // "sqlite3"
//
// Other registered drivers reach the same dialect through Normalize:
// "pgx" (jackc/pgx) is Postgres, "sqlite" (modernc.org/sqlite) is SQLite.
// DriverName goes the other way for user input such as "postgresql".
//
// The store sees a database only as a Driver: Exec and Query with
// untyped arguments and results, a transaction per flush, and the
// dialect name for quoting and placeholders. dialect/sql implements it
// over database/sql, and its StatsDriver and DebugDriver wrap any Driver.
package dialect
