package sql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordgen/dialect"
)

func mockDriver(t *testing.T, driverName string, opts ...sqlmock.Option) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return OpenDB(driverName, db), mock
}

func TestOpenDB(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{"postgres", dialect.Postgres},
		{"pgx", dialect.Postgres},
		{"mysql", dialect.MySQL},
		{"sqlite", dialect.SQLite},
		{"sqlite3", dialect.SQLite},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			drv, _ := mockDriver(t, tt.driver)
			assert.Equal(t, tt.want, drv.Dialect())
			assert.NotNil(t, drv.DB())
		})
	}
}

func TestDriverPing(t *testing.T) {
	drv, mock := mockDriver(t, "postgres", sqlmock.MonitorPingsOption(true))
	mock.ExpectPing()
	require.NoError(t, drv.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	err := drv.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to postgres")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverQuery(t *testing.T) {
	drv, mock := mockDriver(t, "postgres")
	ctx := context.Background()

	t.Run("Values", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name FROM users WHERE active = \$1`).
			WithArgs(true).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Alice").AddRow(2, "Bob"))

		rows := &Rows{}
		require.NoError(t, drv.Query(ctx, "SELECT id, name FROM users WHERE active = $1", []any{true}, rows))
		defer rows.Close()
		var names []any
		for rows.Next() {
			values, err := rows.Values(2)
			require.NoError(t, err)
			names = append(names, values[1])
		}
		require.NoError(t, rows.Err())
		assert.Equal(t, []any{"Alice", "Bob"}, names)
	})

	t.Run("One", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))
		rows := &Rows{}
		require.NoError(t, drv.Query(ctx, "SELECT COUNT(*) FROM users", []any{}, rows))
		var n int
		found, err := rows.One(&n)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 3, n)
	})

	t.Run("OneEmpty", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id FROM users`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
		rows := &Rows{}
		require.NoError(t, drv.Query(ctx, "SELECT id FROM users", []any{}, rows))
		var id int64
		found, err := rows.One(&id)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("database error"))
		err := drv.Query(ctx, "SELECT", []any{}, &Rows{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dialect/sql: query")
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverExec(t *testing.T) {
	drv, mock := mockDriver(t, "mysql")
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO `users`").WithArgs("Alice").WillReturnResult(sqlmock.NewResult(7, 1))
	var res Result
	require.NoError(t, drv.Exec(ctx, "INSERT INTO `users` (`name`) VALUES (?)", []any{"Alice"}, &res))
	id, err := res.LastInsertId()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	mock.ExpectExec("UPDATE `users`").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, drv.Exec(ctx, "UPDATE `users` SET `name` = ?", []any{"Bob"}, nil))

	mock.ExpectExec("UPDATE").WillReturnError(errors.New("constraint violation"))
	err = drv.Exec(ctx, "UPDATE `users` SET `email` = NULL", []any{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constraint violation")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		drv, mock := mockDriver(t, "sqlite3")
		mock.ExpectBegin()
		mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		tx, err := drv.Tx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Exec(ctx, `INSERT INTO "users" DEFAULT VALUES`, []any{}, nil))
		rows := &Rows{}
		require.NoError(t, tx.Query(ctx, `SELECT "id" FROM "users"`, []any{}, rows))
		require.NoError(t, rows.Close())
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback", func(t *testing.T) {
		drv, mock := mockDriver(t, "sqlite3")
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE").WillReturnError(errors.New("locked"))
		mock.ExpectRollback()

		tx, err := drv.Tx(ctx)
		require.NoError(t, err)
		require.Error(t, tx.Exec(ctx, `UPDATE "users" SET "name" = ?`, []any{"x"}, nil))
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BeginError", func(t *testing.T) {
		drv, mock := mockDriver(t, "sqlite3")
		mock.ExpectBegin().WillReturnError(errors.New("busy"))
		_, err := drv.Tx(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dialect/sql: begin")
	})

	t.Run("Canceled", func(t *testing.T) {
		drv, _ := mockDriver(t, "sqlite3")
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := drv.Tx(canceled)
		require.Error(t, err)
	})
}

func TestConnArguments(t *testing.T) {
	drv, _ := mockDriver(t, "postgres")
	ctx := context.Background()

	err := drv.Exec(ctx, "SELECT 1", "not a slice", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want []any")

	err = drv.Exec(ctx, "SELECT 1", []any{}, new(int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want *sql.Result")

	err = drv.Query(ctx, "SELECT 1", []any{}, new(int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want *sql.Rows")

	err = drv.Query(ctx, "SELECT 1", 42, &Rows{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want []any")
}
