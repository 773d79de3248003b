package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"postgres":   Postgres,
		"postgresql": Postgres,
		"pgx":        Postgres,
		"sqlite":     SQLite,
		"sqlite3":    SQLite,
		"mysql":      MySQL,
		"oracle":     "oracle",
	}
	for alias, want := range tests {
		assert.Equal(t, want, Normalize(alias), alias)
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("pgx"))
	assert.True(t, Supported("sqlite"))
	assert.True(t, Supported(MySQL))
	assert.False(t, Supported("oracle"))
	assert.False(t, Supported(""))
}

func TestDriverName(t *testing.T) {
	assert.Equal(t, "postgres", DriverName("postgresql"))
	assert.Equal(t, "pgx", DriverName("pgx"))
	assert.Equal(t, "sqlite", DriverName("sqlite"))
	assert.Equal(t, "sqlite3", DriverName("sqlite3"))
}
