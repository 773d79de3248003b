package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"

	"github.com/cockroachdb/errors"

	"github.com/syssam/recordgen/dialect"
)

type (
	// Result is an alias to sql.Result.
	Result = sql.Result
	// TxOptions holds the options of a flush transaction.
	TxOptions = sql.TxOptions
)

// Driver runs the store's statements over a database/sql connection pool.
type Driver struct {
	Conn
	db *sql.DB
}

// Open opens a connection pool with a registered database/sql driver
// ("postgres", "pgx", "mysql", "sqlite", "sqlite3") and derives the
// dialect from its name.
func Open(driverName, source string) (*Driver, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, errors.Wrapf(err, "dialect/sql: open %s", driverName)
	}
	return OpenDB(driverName, db), nil
}

// OpenDB wraps an open pool.
func OpenDB(driverName string, db *sql.DB) *Driver {
	return &Driver{Conn: Conn{ExecQuerier: db, dialect: dialect.Normalize(driverName)}, db: db}
}

// DB returns the underlying pool.
func (d *Driver) DB() *sql.DB { return d.db }

// Dialect implements dialect.Driver.
func (d *Driver) Dialect() string { return d.dialect }

// Ping verifies the connection.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return errors.Wrapf(err, "dialect/sql: connect to %s", d.dialect)
	}
	return nil
}

// Tx implements dialect.Driver.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (dialect.Tx, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "dialect/sql: begin")
	}
	return &Tx{Conn: Conn{ExecQuerier: tx, dialect: d.dialect}, Tx: tx}, nil
}

// Close implements dialect.Driver.
func (d *Driver) Close() error { return d.db.Close() }

// Tx is a flush transaction.
type Tx struct {
	Conn
	driver.Tx
}

// ExecQuerier is satisfied by *sql.DB and *sql.Tx.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn adapts an ExecQuerier to dialect.ExecQuerier. Arguments are passed
// as []any; Exec stores into a *Result when one is given and Query into a
// *Rows.
type Conn struct {
	ExecQuerier
	dialect string
}

// Exec implements dialect.ExecQuerier.
func (c Conn) Exec(ctx context.Context, query string, args, v any) error {
	argv, err := arguments(args)
	if err != nil {
		return err
	}
	var res *Result
	switch v := v.(type) {
	case nil:
	case *Result:
		res = v
	default:
		return errors.Newf("dialect/sql: exec into %T, want *sql.Result", v)
	}
	r, err := c.ExecContext(ctx, query, argv...)
	if err != nil {
		return errors.Wrap(err, "dialect/sql: exec")
	}
	if res != nil {
		*res = r
	}
	return nil
}

// Query implements dialect.ExecQuerier.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	rows, ok := v.(*Rows)
	if !ok {
		return errors.Newf("dialect/sql: query into %T, want *sql.Rows", v)
	}
	argv, err := arguments(args)
	if err != nil {
		return err
	}
	r, err := c.QueryContext(ctx, query, argv...)
	if err != nil {
		return errors.Wrap(err, "dialect/sql: query")
	}
	rows.ColumnScanner = r
	return nil
}

func arguments(args any) ([]any, error) {
	argv, ok := args.([]any)
	if !ok {
		return nil, errors.Newf("dialect/sql: arguments of type %T, want []any", args)
	}
	return argv, nil
}

// ColumnScanner is the subset of *sql.Rows the store reads.
type ColumnScanner interface {
	Close() error
	Columns() ([]string, error)
	Err() error
	Next() bool
	Scan(dest ...any) error
}

// Rows holds the result of Query.
type Rows struct{ ColumnScanner }

// Values scans the current row into n untyped values, in column order.
func (r *Rows) Values(n int) ([]any, error) {
	values := make([]any, n)
	dest := make([]any, n)
	for i := range values {
		dest[i] = &values[i]
	}
	if err := r.Scan(dest...); err != nil {
		return nil, err
	}
	return values, nil
}

// One scans the first row into dest and closes the rows. It reports
// false when the result is empty.
func (r *Rows) One(dest ...any) (bool, error) {
	defer r.Close()
	if !r.Next() {
		return false, r.Err()
	}
	if err := r.Scan(dest...); err != nil {
		return false, err
	}
	return true, r.Err()
}

var _ dialect.Driver = (*Driver)(nil)
