package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// DefaultTableName is the table seeded into every new base.
const DefaultTableName = "Table 1"

type baseRecord struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	OwnerUserID string `db:"owner_user_id"`
	CreatedAt   string `db:"created_at"`
}

func (r baseRecord) base() types.Base {
	created, _ := time.Parse(time.RFC3339Nano, r.CreatedAt)
	return types.Base{ID: r.ID, Name: r.Name, OwnerUserID: r.OwnerUserID, CreatedAt: created}
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", types.ErrInvalidName
	}
	return name, nil
}

// CreateBase creates a base owned by userID with one seeded table.
func (b *Backend) CreateBase(ctx context.Context, userID, name string) (*types.Base, error) {
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

	created := time.Now().UTC()
	base := &types.Base{Name: name, OwnerUserID: userID, CreatedAt: created}
	err = inTx(ctx, db, func(tx *sqlx.Tx) error {
		id, err := b.insert(ctx, tx,
			`INSERT INTO grid_base (name, owner_user_id, created_at) VALUES (?, ?, ?)`,
			name, userID, created.Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert base: %w", err)
		}
		base.ID = id
		_, err = b.createTable(ctx, tx, id, DefaultTableName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return base, nil
}

// ListBases returns the user's bases ordered by id.
func (b *Backend) ListBases(ctx context.Context, userID string) ([]types.Base, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	var records []baseRecord
	err = selectAll(ctx, db, &records,
		`SELECT id, name, owner_user_id, created_at FROM grid_base WHERE owner_user_id = ? ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list bases: %w", classify(err))
	}
	bases := make([]types.Base, len(records))
	for i, r := range records {
		bases[i] = r.base()
	}
	return bases, nil
}

// DeleteBase removes a base and, by cascade, everything in it.
func (b *Backend) DeleteBase(ctx context.Context, userID string, baseID int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	db, err := b.conn()
	if err != nil {
		return err
	}

	res, err := exec(ctx, db, `DELETE FROM grid_base WHERE id = ? AND owner_user_id = ?`, baseID, userID)
	if err != nil {
		return fmt.Errorf("delete base: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete base: %w", err)
	}
	if n == 0 {
		return types.ErrAccessDenied
	}
	return nil
}
