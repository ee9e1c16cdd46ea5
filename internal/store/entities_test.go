package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func TestCreateBase_SeedsDefaultTable(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	base, err := b.CreateBase(ctx, alice, "  Projects ")
	require.NoError(t, err)
	assert.Equal(t, "Projects", base.Name)
	assert.Equal(t, alice, base.OwnerUserID)
	assert.False(t, base.CreatedAt.IsZero())

	tables, err := b.ListTables(ctx, alice, base.ID)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, DefaultTableName, tables[0].Name)

	table, err := b.GetTable(ctx, alice, tables[0].ID)
	require.NoError(t, err)
	require.Len(t, table.Columns, 3)
	for i, want := range []struct {
		name string
		typ  types.ColumnType
	}{{"Name", types.ColumnText}, {"Notes", types.ColumnText}, {"Number", types.ColumnNumber}} {
		assert.Equal(t, want.name, table.Columns[i].Name)
		assert.Equal(t, want.typ, table.Columns[i].Type)
		assert.Equal(t, i, table.Columns[i].Order)
	}

	rows := allRows(t, b, types.ViewQuery{TableID: table.ID, Limit: 10})
	require.Len(t, rows, DefaultRowCount)
	for i, r := range rows {
		assert.Equal(t, int64(i), r.Order)
		assert.Empty(t, r.Cells)
	}
	assert.Equal(t, DefaultRowCount*3, count(t, b, `SELECT COUNT(*) FROM grid_cell`))
}

func TestCreateBase_Validation(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	_, err := b.CreateBase(ctx, alice, "   ")
	assert.ErrorIs(t, err, types.ErrInvalidName)

	_, err = b.CreateBase(ctx, "", "Base")
	assert.ErrorIs(t, err, types.ErrAccessDenied)
}

func TestListBases_OwnedOnly(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	_, err := b.CreateBase(ctx, alice, "A1")
	require.NoError(t, err)
	_, err = b.CreateBase(ctx, alice, "A2")
	require.NoError(t, err)
	_, err = b.CreateBase(ctx, bob, "B1")
	require.NoError(t, err)

	bases, err := b.ListBases(ctx, alice)
	require.NoError(t, err)
	require.Len(t, bases, 2)
	assert.Equal(t, "A1", bases[0].Name)
	assert.Equal(t, "A2", bases[1].Name)

	bases, err = b.ListBases(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, bases)
}

func TestDeleteBase_Cascades(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	table := newTestTable(t, b)

	_, err := b.CreateView(ctx, alice, table.ID, types.ViewInput{Name: "All"})
	require.NoError(t, err)

	assert.ErrorIs(t, b.DeleteBase(ctx, bob, table.BaseID), types.ErrAccessDenied)
	require.NoError(t, b.DeleteBase(ctx, alice, table.BaseID))

	for _, tbl := range []string{"grid_table", "grid_column", "grid_row", "grid_cell", "grid_view"} {
		assert.Zero(t, count(t, b, "SELECT COUNT(*) FROM "+tbl), tbl)
	}
	assert.ErrorIs(t, b.DeleteBase(ctx, alice, table.BaseID), types.ErrAccessDenied)
}

func TestCreateTable(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	first := newTestTable(t, b)

	second, err := b.CreateTable(ctx, alice, first.BaseID, "Second")
	require.NoError(t, err)
	assert.Len(t, second.Columns, 3)

	tables, err := b.ListTables(ctx, alice, first.BaseID)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, first.ID, tables[0].ID)
	assert.Equal(t, second.ID, tables[1].ID)
	assert.Nil(t, tables[1].Columns)

	_, err = b.CreateTable(ctx, bob, first.BaseID, "Intruder")
	assert.ErrorIs(t, err, types.ErrAccessDenied)
}

func TestCreateColumn_BackFillsCells(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	table := newTestTable(t, b)
	addRows(t, b, table.ID, 2)

	col, err := b.CreateColumn(ctx, alice, table.ID, "Age", types.ColumnNumber)
	require.NoError(t, err)
	assert.Equal(t, 3, col.Order)
	assert.Equal(t, types.ColumnNumber, col.Type)

	rows := DefaultRowCount + 2
	assert.Equal(t, rows, count(t, b, `SELECT COUNT(*) FROM grid_cell WHERE column_id = ?`, col.ID))
	assert.Equal(t, rows*4, count(t, b, `SELECT COUNT(*) FROM grid_cell`))
	assert.Zero(t, count(t, b, `SELECT COUNT(*) FROM grid_cell WHERE column_id = ? AND (value IS NOT NULL OR numeric_value IS NOT NULL)`, col.ID))

	_, err = b.CreateColumn(ctx, alice, table.ID, "Bad", "DATE")
	assert.ErrorIs(t, err, types.ErrInvalidColumnType)
	_, err = b.CreateColumn(ctx, alice, table.ID, "", types.ColumnText)
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func TestCreateRow_BackFillsCells(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	table := newTestTable(t, b)

	row, err := b.CreateRow(ctx, alice, table.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultRowCount), row.Order)
	assert.Equal(t, table.ID, row.TableID)
	assert.Equal(t, len(table.Columns), count(t, b, `SELECT COUNT(*) FROM grid_cell WHERE row_id = ?`, row.ID))

	next, err := b.CreateRow(ctx, alice, table.ID)
	require.NoError(t, err)
	assert.Equal(t, row.Order+1, next.Order)
	assert.Greater(t, next.ID, row.ID)
}

func TestUpdateCell_TypeDispatch(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	table := newTestTable(t, b)
	rowID := addRows(t, b, table.ID, 0)[0]
	number := columnNamed(t, table, "Number")
	name := columnNamed(t, table, "Name")

	cell, err := b.UpdateCell(ctx, alice, rowID, number.ID, "12.5")
	require.NoError(t, err)
	require.NotNil(t, cell.NumericValue)
	assert.Equal(t, 12.5, *cell.NumericValue)
	assert.Nil(t, cell.Value)

	cell, err = b.UpdateCell(ctx, alice, rowID, number.ID, "abc")
	require.NoError(t, err)
	assert.Nil(t, cell.NumericValue)
	assert.Nil(t, cell.Value)
	assert.Equal(t, 1, count(t, b,
		`SELECT COUNT(*) FROM grid_cell WHERE row_id = ? AND column_id = ? AND value IS NULL AND numeric_value IS NULL`,
		rowID, number.ID))

	cell, err = b.UpdateCell(ctx, alice, rowID, name.ID, "  Anna ")
	require.NoError(t, err)
	require.NotNil(t, cell.Value)
	assert.Equal(t, "  Anna ", *cell.Value)
	assert.Nil(t, cell.NumericValue)
}

func TestUpdateCell_Idempotent(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	table := newTestTable(t, b)
	rowID := addRows(t, b, table.ID, 0)[0]
	number := columnNamed(t, table, "Number")

	first, err := b.UpdateCell(ctx, alice, rowID, number.ID, "7")
	require.NoError(t, err)
	second, err := b.UpdateCell(ctx, alice, rowID, number.ID, "7")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, count(t, b, `SELECT COUNT(*) FROM grid_cell WHERE row_id = ? AND column_id = ?`, rowID, number.ID))
}

func TestUpdateCell_StrictNumbers(t *testing.T) {
	b := newTestBackendWith(t, types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir(), StrictNumbers: true})
	ctx := context.Background()
	table := newTestTable(t, b)
	rowID := addRows(t, b, table.ID, 0)[0]
	number := columnNamed(t, table, "Number")

	setCell(t, b, rowID, number.ID, "3")
	_, err := b.UpdateCell(ctx, alice, rowID, number.ID, "abc")
	assert.ErrorIs(t, err, types.ErrInvalidNumber)
	assert.True(t, types.IsValidation(err))
	assert.Equal(t, 1, count(t, b,
		`SELECT COUNT(*) FROM grid_cell WHERE row_id = ? AND column_id = ? AND numeric_value = 3`, rowID, number.ID))

	_, err = b.UpdateCell(ctx, alice, rowID, number.ID, "")
	assert.NoError(t, err, "blank input clears in strict mode")
}

func TestUpdateCell_UnknownColumn(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	table := newTestTable(t, b)
	rowID := addRows(t, b, table.ID, 0)[0]

	other, err := b.CreateTable(ctx, alice, table.BaseID, "Other")
	require.NoError(t, err)

	_, err = b.UpdateCell(ctx, alice, rowID, other.Columns[0].ID, "x")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = b.UpdateCell(ctx, alice, rowID, 9999, "x")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestAuthorization(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	table := newTestTable(t, b)
	rowID := addRows(t, b, table.ID, 0)[0]
	view, err := b.CreateView(ctx, alice, table.ID, types.ViewInput{Name: "Mine"})
	require.NoError(t, err)
	const missing = int64(424242)

	checks := map[string]func(user string, tableID int64) error{
		"ListTables": func(u string, _ int64) error { _, err := b.ListTables(ctx, u, table.BaseID); return err },
		"GetTable":   func(u string, id int64) error { _, err := b.GetTable(ctx, u, id); return err },
		"CreateColumn": func(u string, id int64) error {
			_, err := b.CreateColumn(ctx, u, id, "X", types.ColumnText)
			return err
		},
		"CreateRow": func(u string, id int64) error { _, err := b.CreateRow(ctx, u, id); return err },
		"UpdateCell": func(u string, _ int64) error {
			_, err := b.UpdateCell(ctx, u, rowID, table.Columns[0].ID, "x")
			return err
		},
		"ListViewPage": func(u string, id int64) error {
			_, err := b.ListViewPage(ctx, u, types.ViewQuery{TableID: id, Limit: 10})
			return err
		},
		"GenerateRows": func(u string, id int64) error {
			_, err := b.GenerateRows(ctx, u, id, 1, types.BatchPolicy{})
			return err
		},
		"CreateView": func(u string, id int64) error {
			_, err := b.CreateView(ctx, u, id, types.ViewInput{Name: "X"})
			return err
		},
		"ListViews": func(u string, id int64) error { _, err := b.ListViews(ctx, u, id); return err },
		"GetView":   func(u string, _ int64) error { _, err := b.GetView(ctx, u, view.ID); return err },
		"EditView": func(u string, _ int64) error {
			_, err := b.EditView(ctx, u, view.ID, types.ViewInput{Name: "X"})
			return err
		},
		"DeleteView": func(u string, _ int64) error { return b.DeleteView(ctx, u, view.ID) },
		"ExportTable": func(u string, id int64) error {
			_, err := b.ExportTable(ctx, u, id, t.TempDir()+"/out.jsonl")
			return err
		},
	}

	for name, call := range checks {
		t.Run(name+"/foreign user", func(t *testing.T) {
			assert.ErrorIs(t, call(bob, table.ID), types.ErrAccessDenied)
		})
		t.Run(name+"/no user", func(t *testing.T) {
			assert.ErrorIs(t, call("", table.ID), types.ErrAccessDenied)
		})
	}
	for _, name := range []string{"GetTable", "CreateColumn", "CreateRow", "ListViewPage", "CreateView", "ListViews"} {
		t.Run(name+"/missing table", func(t *testing.T) {
			assert.ErrorIs(t, checks[name](alice, missing), types.ErrAccessDenied)
		})
	}

	// Denied calls leave the table untouched.
	assert.Equal(t, DefaultRowCount, count(t, b, `SELECT COUNT(*) FROM grid_row`))
	assert.Equal(t, 3, count(t, b, `SELECT COUNT(*) FROM grid_column`))
}
