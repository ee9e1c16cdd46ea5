package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/gridbase/internal/query"
)

// ext is the statement surface shared by *sqlx.DB and *sqlx.Tx. Helpers
// take an ext so they run inside or outside a transaction. Statements are
// written with "?" placeholders and rebound for the driver.
type ext = sqlx.ExtContext

func get(ctx context.Context, q ext, dest any, stmt string, args ...any) error {
	return sqlx.GetContext(ctx, q, dest, q.Rebind(stmt), args...)
}

func selectAll(ctx context.Context, q ext, dest any, stmt string, args ...any) error {
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(stmt), args...)
}

func exec(ctx context.Context, q ext, stmt string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, q.Rebind(stmt), args...)
}

// insert runs an INSERT into a table with an "id" key and returns the new
// id. PostgreSQL has no LastInsertId and uses RETURNING instead.
func (b *Backend) insert(ctx context.Context, q ext, stmt string, args ...any) (int64, error) {
	if b.dialect == query.Postgres {
		var id int64
		if err := q.QueryRowxContext(ctx, q.Rebind(stmt+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := exec(ctx, q, stmt, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// lockTable locks the table's grid_table row for the rest of the
// transaction, serializing row and column writers of one table. SQLite
// allows a single writer and needs no lock.
func (b *Backend) lockTable(ctx context.Context, q ext, tableID int64) error {
	if b.dialect == query.SQLite {
		return nil
	}
	var id int64
	if err := get(ctx, q, &id, `SELECT id FROM grid_table WHERE id = ? FOR UPDATE`, tableID); err != nil {
		return fmt.Errorf("lock table: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction, committing when it returns nil.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	return nil
}
