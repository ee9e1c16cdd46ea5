package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

const nextOrderSQL = `SELECT COALESCE(MAX(sort_order), -1) + 1 FROM grid_row WHERE table_id = ?`

// CreateRow appends a row at max(order)+1 and back-fills an empty cell for
// every column.
func (b *Backend) CreateRow(ctx context.Context, userID string, tableID int64) (*types.Row, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	var row *types.Row
	err = inTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := authorizeTable(ctx, tx, userID, tableID); err != nil {
			return err
		}
		r, err := b.appendRow(ctx, tx, tableID)
		row = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (b *Backend) appendRow(ctx context.Context, q ext, tableID int64) (*types.Row, error) {
	if err := b.lockTable(ctx, q, tableID); err != nil {
		return nil, err
	}
	var order int64
	if err := get(ctx, q, &order, nextOrderSQL, tableID); err != nil {
		return nil, fmt.Errorf("next row order: %w", err)
	}
	id, err := b.insert(ctx, q, `INSERT INTO grid_row (table_id, sort_order) VALUES (?, ?)`, tableID, order)
	if err != nil {
		return nil, fmt.Errorf("insert row: %w", err)
	}
	if _, err := exec(ctx, q,
		`INSERT INTO grid_cell (row_id, column_id)
		SELECT r.id, c.id FROM grid_column c JOIN grid_row r ON r.id = ?
		WHERE c.table_id = ?`,
		id, tableID); err != nil {
		return nil, fmt.Errorf("back-fill cells: %w", err)
	}
	return &types.Row{ID: id, TableID: tableID, Order: order}, nil
}
