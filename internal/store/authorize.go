package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// Every table-scoped operation resolves its target through one of the
// checks below. A resource that does not exist and one owned by another
// user both yield ErrAccessDenied.

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return types.ErrAccessDenied
	}
	return nil
}

func denyMissing(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrAccessDenied
	}
	return err
}

func authorizeBase(ctx context.Context, q ext, userID string, baseID int64) error {
	var one int
	err := get(ctx, q, &one,
		`SELECT 1 FROM grid_base WHERE id = ? AND owner_user_id = ?`,
		baseID, userID)
	return denyMissing(err)
}

func authorizeTable(ctx context.Context, q ext, userID string, tableID int64) error {
	var one int
	err := get(ctx, q, &one,
		`SELECT 1 FROM grid_table t
		JOIN grid_base b ON b.id = t.base_id
		WHERE t.id = ? AND b.owner_user_id = ?`,
		tableID, userID)
	return denyMissing(err)
}

// rowTable returns the table of an authorized row.
func rowTable(ctx context.Context, q ext, userID string, rowID int64) (int64, error) {
	var tableID int64
	err := get(ctx, q, &tableID,
		`SELECT r.table_id FROM grid_row r
		JOIN grid_table t ON t.id = r.table_id
		JOIN grid_base b ON b.id = t.base_id
		WHERE r.id = ? AND b.owner_user_id = ?`,
		rowID, userID)
	return tableID, denyMissing(err)
}

// viewTable returns the table of an authorized view.
func viewTable(ctx context.Context, q ext, userID string, viewID int64) (int64, error) {
	var tableID int64
	err := get(ctx, q, &tableID,
		`SELECT v.table_id FROM grid_view v
		JOIN grid_table t ON t.id = v.table_id
		JOIN grid_base b ON b.id = t.base_id
		WHERE v.id = ? AND b.owner_user_id = ?`,
		viewID, userID)
	return tableID, denyMissing(err)
}
