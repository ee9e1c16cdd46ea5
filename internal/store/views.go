package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

type viewRecord struct {
	ID          int64   `db:"id"`
	TableID     int64   `db:"table_id"`
	Name        string  `db:"name"`
	SearchQuery *string `db:"search_query"`
}

type sortRecord struct {
	ViewID    int64  `db:"view_id"`
	ColumnID  int64  `db:"column_id"`
	Direction string `db:"direction"`
	Priority  int    `db:"priority"`
}

type filterRecord struct {
	ViewID   int64  `db:"view_id"`
	ColumnID int64  `db:"column_id"`
	Operator string `db:"operator"`
	Value    string `db:"value"`
}

// searchQuery stores a blank search as NULL.
func searchQuery(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// CreateView saves a named view of the table. Unlike page queries, saving
// rejects sorts and filters on unknown columns.
func (b *Backend) CreateView(ctx context.Context, userID string, tableID int64, in types.ViewInput) (*types.View, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	var view *types.View
	err = inTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := authorizeTable(ctx, tx, userID, tableID); err != nil {
			return err
		}
		columns, err := loadColumns(ctx, tx, tableID)
		if err != nil {
			return err
		}
		if err := in.Validate(columns); err != nil {
			return err
		}
		name := strings.TrimSpace(in.Name)
		search := searchQuery(in.SearchQuery)
		id, err := b.insert(ctx, tx,
			`INSERT INTO grid_view (table_id, name, search_query) VALUES (?, ?, ?)`,
			tableID, name, search)
		if err != nil {
			return fmt.Errorf("insert view: %w", err)
		}
		if err := writeViewSpecs(ctx, tx, id, in); err != nil {
			return err
		}
		view = savedView(id, tableID, name, search, in)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// EditView replaces the view's name, search, sorts and filters.
func (b *Backend) EditView(ctx context.Context, userID string, viewID int64, in types.ViewInput) (*types.View, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	var view *types.View
	err = inTx(ctx, db, func(tx *sqlx.Tx) error {
		tableID, err := viewTable(ctx, tx, userID, viewID)
		if err != nil {
			return err
		}
		columns, err := loadColumns(ctx, tx, tableID)
		if err != nil {
			return err
		}
		if err := in.Validate(columns); err != nil {
			return err
		}
		name := strings.TrimSpace(in.Name)
		search := searchQuery(in.SearchQuery)
		if _, err := exec(ctx, tx,
			`UPDATE grid_view SET name = ?, search_query = ? WHERE id = ?`,
			name, search, viewID); err != nil {
			return fmt.Errorf("update view: %w", err)
		}
		if _, err := exec(ctx, tx, `DELETE FROM view_sort WHERE view_id = ?`, viewID); err != nil {
			return fmt.Errorf("clear sorts: %w", err)
		}
		if _, err := exec(ctx, tx, `DELETE FROM view_filter WHERE view_id = ?`, viewID); err != nil {
			return fmt.Errorf("clear filters: %w", err)
		}
		if err := writeViewSpecs(ctx, tx, viewID, in); err != nil {
			return err
		}
		view = savedView(viewID, tableID, name, search, in)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func savedView(id, tableID int64, name string, search *string, in types.ViewInput) *types.View {
	return &types.View{
		ID:          id,
		TableID:     tableID,
		Name:        name,
		SearchQuery: search,
		Sorts:       append([]types.SortSpec{}, in.Sorts...),
		Filters:     append([]types.FilterSpec{}, in.Filters...),
	}
}

func writeViewSpecs(ctx context.Context, q ext, viewID int64, in types.ViewInput) error {
	for _, s := range in.Sorts {
		if _, err := exec(ctx, q,
			`INSERT INTO view_sort (view_id, column_id, direction, priority) VALUES (?, ?, ?, ?)`,
			viewID, s.ColumnID, string(s.Direction), s.Priority); err != nil {
			return fmt.Errorf("insert sort: %w", err)
		}
	}
	for _, f := range in.Filters {
		if _, err := exec(ctx, q,
			`INSERT INTO view_filter (view_id, column_id, operator, value) VALUES (?, ?, ?, ?)`,
			viewID, f.ColumnID, string(f.Operator), f.Value); err != nil {
			return fmt.Errorf("insert filter: %w", err)
		}
	}
	return nil
}

// ListViews returns the table's views ordered by id.
func (b *Backend) ListViews(ctx context.Context, userID string, tableID int64) ([]types.View, error) {
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

	var records []viewRecord
	if err := selectAll(ctx, db, &records,
		`SELECT id, table_id, name, search_query FROM grid_view WHERE table_id = ? ORDER BY id`, tableID); err != nil {
		return nil, fmt.Errorf("list views: %w", classify(err))
	}
	return loadViewSpecs(ctx, db, records)
}

// GetView returns one view with its sorts and filters.
func (b *Backend) GetView(ctx context.Context, userID string, viewID int64) (*types.View, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	if _, err := viewTable(ctx, db, userID, viewID); err != nil {
		return nil, classify(err)
	}

	var rec viewRecord
	if err := get(ctx, db, &rec,
		`SELECT id, table_id, name, search_query FROM grid_view WHERE id = ?`, viewID); err != nil {
		return nil, fmt.Errorf("get view: %w", classify(err))
	}
	views, err := loadViewSpecs(ctx, db, []viewRecord{rec})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// DeleteView removes a view and its sorts and filters.
func (b *Backend) DeleteView(ctx context.Context, userID string, viewID int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	db, err := b.conn()
	if err != nil {
		return err
	}
	return inTx(ctx, db, func(tx *sqlx.Tx) error {
		if _, err := viewTable(ctx, tx, userID, viewID); err != nil {
			return err
		}
		if _, err := exec(ctx, tx, `DELETE FROM grid_view WHERE id = ?`, viewID); err != nil {
			return fmt.Errorf("delete view: %w", err)
		}
		return nil
	})
}

// loadViewSpecs attaches sorts (by priority) and filters (by column) to
// each view record.
func loadViewSpecs(ctx context.Context, q ext, records []viewRecord) ([]types.View, error) {
	views := make([]types.View, len(records))
	if len(records) == 0 {
		return views, nil
	}
	index := make(map[int64]int, len(records))
	ids := make([]int64, len(records))
	for i, r := range records {
		views[i] = types.View{
			ID:          r.ID,
			TableID:     r.TableID,
			Name:        r.Name,
			SearchQuery: r.SearchQuery,
			Sorts:       []types.SortSpec{},
			Filters:     []types.FilterSpec{},
		}
		index[r.ID] = i
		ids[i] = r.ID
	}

	stmt, args, err := sqlx.In(
		`SELECT view_id, column_id, direction, priority FROM view_sort WHERE view_id IN (?) ORDER BY priority, column_id`, ids)
	if err != nil {
		return nil, err
	}
	var sorts []sortRecord
	if err := selectAll(ctx, q, &sorts, stmt, args...); err != nil {
		return nil, fmt.Errorf("load sorts: %w", classify(err))
	}
	for _, s := range sorts {
		v := &views[index[s.ViewID]]
		v.Sorts = append(v.Sorts, types.SortSpec{ColumnID: s.ColumnID, Direction: types.SortDirection(s.Direction), Priority: s.Priority})
	}

	stmt, args, err = sqlx.In(
		`SELECT view_id, column_id, operator, value FROM view_filter WHERE view_id IN (?) ORDER BY column_id`, ids)
	if err != nil {
		return nil, err
	}
	var filters []filterRecord
	if err := selectAll(ctx, q, &filters, stmt, args...); err != nil {
		return nil, fmt.Errorf("load filters: %w", classify(err))
	}
	for _, f := range filters {
		v := &views[index[f.ViewID]]
		v.Filters = append(v.Filters, types.FilterSpec{ColumnID: f.ColumnID, Operator: types.FilterOperator(f.Operator), Value: f.Value})
	}
	return views, nil
}
