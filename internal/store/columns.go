package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

type columnRecord struct {
	ID      int64  `db:"id"`
	TableID int64  `db:"table_id"`
	Name    string `db:"name"`
	Type    string `db:"type"`
	Order   int    `db:"sort_order"`
}

func (r columnRecord) column() types.Column {
	return types.Column{ID: r.ID, TableID: r.TableID, Name: r.Name, Type: types.ColumnType(r.Type), Order: r.Order}
}

// loadColumns returns a table's columns ordered by order.
func loadColumns(ctx context.Context, q ext, tableID int64) ([]types.Column, error) {
	var records []columnRecord
	if err := selectAll(ctx, q, &records,
		`SELECT id, table_id, name, type, sort_order FROM grid_column WHERE table_id = ? ORDER BY sort_order, id`,
		tableID); err != nil {
		return nil, fmt.Errorf("load columns: %w", classify(err))
	}
	columns := make([]types.Column, len(records))
	for i, r := range records {
		columns[i] = r.column()
	}
	return columns, nil
}

// loadColumn returns one column of tableID, or ErrNotFound.
func loadColumn(ctx context.Context, q ext, tableID, columnID int64) (types.Column, error) {
	var rec columnRecord
	err := get(ctx, q, &rec,
		`SELECT id, table_id, name, type, sort_order FROM grid_column WHERE id = ? AND table_id = ?`,
		columnID, tableID)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Column{}, fmt.Errorf("column %d: %w", columnID, types.ErrNotFound)
	}
	if err != nil {
		return types.Column{}, fmt.Errorf("load column: %w", err)
	}
	return rec.column(), nil
}

// CreateColumn appends a column to the table and back-fills an empty cell
// for every existing row.
func (b *Backend) CreateColumn(ctx context.Context, userID string, tableID int64, name string, columnType types.ColumnType) (*types.Column, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	if !columnType.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidColumnType, columnType)
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	var col *types.Column
	err = inTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := authorizeTable(ctx, tx, userID, tableID); err != nil {
			return err
		}
		c, err := b.appendColumn(ctx, tx, tableID, name, columnType)
		col = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return col, nil
}

// appendColumn inserts a column at order = count of existing columns and
// creates its cells.
func (b *Backend) appendColumn(ctx context.Context, q ext, tableID int64, name string, columnType types.ColumnType) (*types.Column, error) {
	if err := b.lockTable(ctx, q, tableID); err != nil {
		return nil, err
	}
	var order int
	if err := get(ctx, q, &order, `SELECT COUNT(*) FROM grid_column WHERE table_id = ?`, tableID); err != nil {
		return nil, fmt.Errorf("count columns: %w", err)
	}
	id, err := b.insert(ctx, q,
		`INSERT INTO grid_column (table_id, name, type, sort_order) VALUES (?, ?, ?, ?)`,
		tableID, name, string(columnType), order)
	if err != nil {
		return nil, fmt.Errorf("insert column: %w", err)
	}
	if _, err := exec(ctx, q,
		`INSERT INTO grid_cell (row_id, column_id)
		SELECT r.id, c.id FROM grid_row r JOIN grid_column c ON c.id = ?
		WHERE r.table_id = ?`,
		id, tableID); err != nil {
		return nil, fmt.Errorf("back-fill cells: %w", err)
	}
	return &types.Column{ID: id, TableID: tableID, Name: name, Type: columnType, Order: order}, nil
}
