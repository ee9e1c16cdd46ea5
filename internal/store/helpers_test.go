package store

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

const (
	alice = "alice"
	bob   = "bob"
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	return newTestBackendWith(t, types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
}

func newTestBackendWith(t *testing.T, config types.Config) *Backend {
	t.Helper()
	b := NewBackend()
	b.SetLogger(quietLogger())
	b.seed = func() uint64 { return 1 }
	require.NoError(t, b.Attach(config))
	t.Cleanup(func() { _ = b.Detach() })
	return b
}

// newTestTable creates a base for alice and returns its seeded table.
func newTestTable(t *testing.T, b *Backend) *types.Table {
	t.Helper()
	ctx := context.Background()
	base, err := b.CreateBase(ctx, alice, "Base")
	require.NoError(t, err)
	tables, err := b.ListTables(ctx, alice, base.ID)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	table, err := b.GetTable(ctx, alice, tables[0].ID)
	require.NoError(t, err)
	return table
}

func columnNamed(t *testing.T, table *types.Table, name string) types.Column {
	t.Helper()
	for _, c := range table.Columns {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no column %q", name)
	return types.Column{}
}

// allRows pages through the table and returns the row records in order.
func allRows(t *testing.T, b *Backend, q types.ViewQuery) []types.RowRecord {
	t.Helper()
	var rows []types.RowRecord
	for {
		page, err := b.ListViewPage(context.Background(), alice, q)
		require.NoError(t, err)
		rows = append(rows, page.Items...)
		if !page.HasNextPage {
			require.Nil(t, page.NextCursor)
			return rows
		}
		require.NotNil(t, page.NextCursor)
		q.Cursor = page.NextCursor
	}
}

// addRows appends n rows and returns all row ids of the table in order.
func addRows(t *testing.T, b *Backend, tableID int64, n int) []int64 {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := b.CreateRow(context.Background(), alice, tableID)
		require.NoError(t, err)
	}
	return rowIDs(allRows(t, b, types.ViewQuery{TableID: tableID, Limit: types.MaxPageSize}))
}

func rowIDs(rows []types.RowRecord) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func setCell(t *testing.T, b *Backend, rowID, columnID int64, raw string) {
	t.Helper()
	_, err := b.UpdateCell(context.Background(), alice, rowID, columnID, raw)
	require.NoError(t, err)
}

func count(t *testing.T, b *Backend, stmt string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, get(context.Background(), b.db, &n, stmt, args...))
	return n
}
