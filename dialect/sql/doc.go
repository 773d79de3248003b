// Package sql implements the recordgen persistence engine over
// database/sql.
//
// # Drivers
//
// Open and OpenDB wrap a database/sql connection in a Driver. The dialect
// is derived from the database/sql driver name, so "postgres" (lib/pq) and
// "pgx" (jackc/pgx) both select PostgreSQL, while "sqlite" (modernc) and
// "sqlite3" (mattn) both select SQLite:
//
//	drv, err := sql.Open("pgx", dsn)
//
// StatsDriver and DebugDriver wrap any dialect.Driver to collect statement
// statistics or log every statement through zap.
//
// # Builders
//
// Select, Insert and Update build the few statement shapes the store
// needs, quoting identifiers and numbering placeholders per dialect:
//
//	s := sql.Select("id", "name").From("users").Where(sql.IsNull("archived_at"))
//	s.SetDialect(dialect.Postgres)
//	query, args := s.Query()
//
// # Store
//
// Store implements recordgen.Store. Persist stages an entity, Flush
// writes every staged entity in one transaction, and Select and Count hide
// archived rows unless the scope asks for them:
//
//	store := sql.NewStore(drv, sql.WithStoreLogger(logger))
//	users, err := models.QueryUsers(ctx, store, recordgen.Where("name", "Ann"))
package sql
