package migrations_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/Shivanand-hulikatti/event-ledger/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestApply_SQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	applied, err := migrations.Apply(ctx, db, migrations.SQLite)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	applied, err = migrations.Apply(ctx, db, migrations.SQLite)
	require.NoError(t, err)
	assert.Zero(t, applied)

	for _, table := range []string{"events", "registrations"} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}
}

func TestApply_UnknownDialect(t *testing.T) {
	_, err := migrations.Apply(context.Background(), nil, migrations.Dialect("oracle"))
	assert.Error(t, err)
}
