package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

type tableRecord struct {
	ID     int64  `db:"id"`
	BaseID int64  `db:"base_id"`
	Name   string `db:"name"`
}

func (r tableRecord) table() types.Table {
	return types.Table{ID: r.ID, BaseID: r.BaseID, Name: r.Name}
}

// CreateTable creates a table in an owned base, seeded with the default
// columns and rows.
func (b *Backend) CreateTable(ctx context.Context, userID string, baseID int64, name string) (*types.Table, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	var table *types.Table
	err = inTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := authorizeBase(ctx, tx, userID, baseID); err != nil {
			return err
		}
		t, err := b.createTable(ctx, tx, baseID, name)
		table = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// createTable inserts and seeds a table. The caller has authorized baseID.
func (b *Backend) createTable(ctx context.Context, q ext, baseID int64, name string) (*types.Table, error) {
	id, err := b.insert(ctx, q, `INSERT INTO grid_table (base_id, name) VALUES (?, ?)`, baseID, name)
	if err != nil {
		return nil, fmt.Errorf("insert table: %w", err)
	}
	columns, err := b.seedTable(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("seed table: %w", err)
	}
	return &types.Table{ID: id, BaseID: baseID, Name: name, Columns: columns}, nil
}

// ListTables returns the base's tables ordered by id, without columns.
func (b *Backend) ListTables(ctx context.Context, userID string, baseID int64) ([]types.Table, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	if err := authorizeBase(ctx, db, userID, baseID); err != nil {
		return nil, classify(err)
	}

	var records []tableRecord
	if err := selectAll(ctx, db, &records,
		`SELECT id, base_id, name FROM grid_table WHERE base_id = ? ORDER BY id`, baseID); err != nil {
		return nil, fmt.Errorf("list tables: %w", classify(err))
	}
	tables := make([]types.Table, len(records))
	for i, r := range records {
		tables[i] = r.table()
	}
	return tables, nil
}

// GetTable returns the table with its columns ordered by order.
func (b *Backend) GetTable(ctx context.Context, userID string, tableID int64) (*types.Table, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	if err := authorizeTable(ctx, db, userID, tableID); err != nil {
		return nil, classify(err)
	}

	var rec tableRecord
	if err := get(ctx, db, &rec, `SELECT id, base_id, name FROM grid_table WHERE id = ?`, tableID); err != nil {
		return nil, fmt.Errorf("get table: %w", classify(err))
	}
	columns, err := loadColumns(ctx, db, tableID)
	if err != nil {
		return nil, err
	}
	table := rec.table()
	table.Columns = columns
	return &table, nil
}
