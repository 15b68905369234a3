package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, err := NewMemoryConnection(ctx)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Migrate(ctx, conn))
	require.NoError(t, Migrate(ctx, conn))

	var version int
	require.NoError(t, conn.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version))
	assert.Equal(t, len(migrations), version)

	// Las claves foráneas tienen que estar activas para que el borrado
	// en cascada funcione.
	var fk int
	require.NoError(t, conn.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestRunInTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	conn, err := NewMemoryConnection(ctx)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Migrate(ctx, conn))

	boom := errors.New("falla simulada")
	err = conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO users (username, password_hash) VALUES ('x', 'y')"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Zero(t, count)
}
