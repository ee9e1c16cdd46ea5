package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gridbase/internal/query"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func TestBackend_Attach(t *testing.T) {
	dir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	b := NewBackend()
	require.NoError(t, b.Attach(config))

	_, err := os.Stat(filepath.Join(dir, DatabaseFile))
	assert.NoError(t, err, "database file not created")

	assert.ErrorIs(t, b.Attach(config), types.ErrAlreadyAttached)
	require.NoError(t, b.Detach())
}

func TestBackend_AttachInvalidConfig(t *testing.T) {
	b := NewBackend()
	assert.ErrorIs(t, b.Attach(types.Config{}), types.ErrBackendEmpty)
	assert.ErrorIs(t, b.Attach(types.Config{Backend: types.BackendPostgres}), types.ErrDSNRequired)
}

func TestBackend_DetachIdempotent(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach())

	_, err := b.ListBases(context.Background(), alice)
	assert.ErrorIs(t, err, types.ErrDetached)
}

func TestBackend_ReattachKeepsData(t *testing.T) {
	dir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}
	ctx := context.Background()

	b := NewBackend()
	require.NoError(t, b.Attach(config))
	_, err := b.CreateBase(ctx, alice, "Kept")
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	require.NoError(t, b.Attach(config))
	defer b.Detach()
	bases, err := b.ListBases(ctx, alice)
	require.NoError(t, err)
	require.Len(t, bases, 1)
	assert.Equal(t, "Kept", bases[0].Name)
}

func TestSchemaFor(t *testing.T) {
	tests := []struct {
		dialect query.Dialect
		want    string
	}{
		{query.SQLite, "INTEGER PRIMARY KEY AUTOINCREMENT"},
		{query.Postgres, "BIGSERIAL PRIMARY KEY"},
		{query.MySQL, "BIGINT AUTO_INCREMENT PRIMARY KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect.String(), func(t *testing.T) {
			stmts := schemaFor(tt.dialect)
			require.Len(t, stmts, len(schemaDDL))
			assert.Contains(t, stmts[0], tt.want)
			for _, s := range stmts {
				assert.NotContains(t, s, "{")
			}
		})
	}
}
