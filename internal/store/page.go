package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/gridbase/internal/query"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

type rowKey struct {
	ID    int64 `db:"id"`
	Order int64 `db:"sort_order"`
}

// ListViewPage returns one keyset page of the table. A zero Limit means
// types.DefaultPageSize. Sorts and filters on columns the table does not
// have are ignored.
func (b *Backend) ListViewPage(ctx context.Context, userID string, q types.ViewQuery) (*types.Page, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if q.Limit == 0 {
		q.Limit = types.DefaultPageSize
	}
	if err := q.ValidateLimit(); err != nil {
		return nil, err
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	if err := authorizeTable(ctx, db, userID, q.TableID); err != nil {
		return nil, classify(err)
	}
	columns, err := loadColumns(ctx, db, q.TableID)
	if err != nil {
		return nil, err
	}
	return b.page(ctx, db, q, columns)
}

// page runs the two-pass page read: the compiled query selects the row
// keys, then every cell of those rows is fetched in one statement.
func (b *Backend) page(ctx context.Context, q ext, vq types.ViewQuery, columns []types.Column) (*types.Page, error) {
	plan, err := query.Build(vq, columns)
	if err != nil {
		return nil, err
	}
	stmt, args := b.dialect.Compile(plan)
	b.logger().WithFields(logrus.Fields{"table": vq.TableID, "sql": stmt, "args": args}).Debug("page query")

	var keys []rowKey
	if err := selectAll(ctx, q, &keys, stmt, args...); err != nil {
		return nil, fmt.Errorf("select page: %w", classify(err))
	}

	page := &types.Page{Columns: plan.Columns}
	if len(keys) > plan.Limit {
		page.HasNextPage = true
		keys = keys[:plan.Limit]
	}
	page.Items, err = hydrate(ctx, q, keys, plan.Columns)
	if err != nil {
		return nil, err
	}
	if page.HasNextPage {
		last := keys[len(keys)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}

// hydrate loads the cells of the given rows and returns them in key order.
// Empty cells are left out of each record's sparse map.
func hydrate(ctx context.Context, q ext, keys []rowKey, columns []types.Column) ([]types.RowRecord, error) {
	items := make([]types.RowRecord, len(keys))
	if len(keys) == 0 {
		return items, nil
	}

	index := make(map[int64]int, len(keys))
	ids := make([]int64, len(keys))
	for i, k := range keys {
		items[i] = types.RowRecord{ID: k.ID, Order: k.Order, Cells: make(map[int64]types.CellValue, len(columns))}
		index[k.ID] = i
		ids[i] = k.ID
	}

	stmt, args, err := sqlx.In(`SELECT row_id, column_id, value, numeric_value FROM grid_cell WHERE row_id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate: %w", err)
	}
	var cells []types.Cell
	if err := selectAll(ctx, q, &cells, stmt, args...); err != nil {
		return nil, fmt.Errorf("hydrate: %w", classify(err))
	}

	byID := make(map[int64]types.Column, len(columns))
	for _, c := range columns {
		byID[c.ID] = c
	}
	for _, cell := range cells {
		col, ok := byID[cell.ColumnID]
		if !ok {
			continue
		}
		if v := types.ReadTypedValue(cell, col); !v.IsEmpty() {
			items[index[cell.RowID]].Cells[cell.ColumnID] = v
		}
	}
	return items, nil
}
