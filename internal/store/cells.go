package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/gridbase/internal/query"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// UpdateCell writes raw user input into the cell at (rowID, columnID).
// NUMBER columns store the parsed number in numeric_value and clear value;
// TEXT columns store raw in value and clear numeric_value. Writing the same
// input twice leaves the same state.
func (b *Backend) UpdateCell(ctx context.Context, userID string, rowID, columnID int64, raw string) (*types.Cell, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	cell := &types.Cell{RowID: rowID, ColumnID: columnID}
	err = inTx(ctx, db, func(tx *sqlx.Tx) error {
		tableID, err := rowTable(ctx, tx, userID, rowID)
		if err != nil {
			return err
		}
		col, err := loadColumn(ctx, tx, tableID, columnID)
		if err != nil {
			return err
		}
		v, err := types.ParseCellInput(raw, col.Type, b.config.StrictNumbers)
		if err != nil {
			return fmt.Errorf("column %q: %w", col.Name, err)
		}
		cell.Value, cell.NumericValue = v.Slots()
		return b.writeCell(ctx, tx, *cell)
	})
	if err != nil {
		return nil, err
	}
	return cell, nil
}

// writeCell stores both slots of a cell, inserting it if it is missing.
func (b *Backend) writeCell(ctx context.Context, q ext, c types.Cell) error {
	if _, err := exec(ctx, q, upsertCellSQL(b.dialect), c.RowID, c.ColumnID, c.Value, c.NumericValue); err != nil {
		return fmt.Errorf("write cell: %w", err)
	}
	return nil
}

func upsertCellSQL(d query.Dialect) string {
	if d == query.MySQL {
		return `INSERT INTO grid_cell (row_id, column_id, value, numeric_value) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value), numeric_value = VALUES(numeric_value)`
	}
	return `INSERT INTO grid_cell (row_id, column_id, value, numeric_value) VALUES (?, ?, ?, ?)
		ON CONFLICT (row_id, column_id) DO UPDATE SET value = excluded.value, numeric_value = excluded.numeric_value`
}

// insertCells writes cells with multi-row INSERTs of at most batch cells.
func insertCells(ctx context.Context, q ext, cells []types.Cell, batch int) error {
	for start := 0; start < len(cells); start += batch {
		end := min(start+batch, len(cells))
		stmt, args := cellInsert(cells[start:end])
		if _, err := exec(ctx, q, stmt, args...); err != nil {
			return fmt.Errorf("insert cells %d..%d: %w", start, end-1, err)
		}
	}
	return nil
}

func cellInsert(cells []types.Cell) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, 4*len(cells))
	sb.WriteString("INSERT INTO grid_cell (row_id, column_id, value, numeric_value) VALUES ")
	for i, c := range cells {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?)")
		args = append(args, c.RowID, c.ColumnID, c.Value, c.NumericValue)
	}
	return sb.String(), args
}
