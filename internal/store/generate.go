package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/gridbase/internal/synth"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// GenerateRows appends count rows of synthetic data to the table. Rows are
// written in chunks of policy.ChunkSize, each chunk in its own transaction
// bounded by policy.ChunkTimeout. Zero policy fields take the values from
// Config.Generate, then the package defaults.
//
// When a chunk fails it is rolled back, the chunks before it stay
// committed, and the returned result describes those committed chunks
// alongside the error. There is no automatic retry; the error wraps
// types.ErrTransient when the database reported a timeout, busy, deadlock
// or lock wait condition.
func (b *Backend) GenerateRows(ctx context.Context, userID string, tableID int64, count int, policy types.BatchPolicy) (*types.GenerateResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidCount, count)
	}
	policy = b.effectivePolicy(policy)
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	if err := authorizeTable(ctx, db, userID, tableID); err != nil {
		return nil, classify(err)
	}

	log := b.logger().WithFields(logrus.Fields{
		"run":   uuid.NewString(),
		"table": tableID,
		"count": count,
		"chunk": policy.ChunkSize,
	})
	gen := synth.New(b.seed())
	result := &types.GenerateResult{}

	for chunk, done := 1, 0; done < count; chunk++ {
		n := min(policy.ChunkSize, count-done)
		first, err := b.generateChunk(ctx, db, chunk, tableID, n, policy, gen)
		if err != nil {
			err = classify(err)
			log.WithError(err).WithField("chunk_index", chunk).Warn("generate chunk failed")
			return result, fmt.Errorf("generate chunk %d: %w", chunk, err)
		}
		if result.Count == 0 {
			result.FirstOrder = first
		}
		result.Count += n
		result.LastOrder = first + int64(n) - 1
		done += n
		log.WithFields(logrus.Fields{"chunk_index": chunk, "rows": result.Count}).Info("generate chunk committed")
	}
	return result, nil
}

func (b *Backend) effectivePolicy(p types.BatchPolicy) types.BatchPolicy {
	b.mu.RLock()
	def := b.config.Generate
	b.mu.RUnlock()

	if p.ChunkSize == 0 {
		p.ChunkSize = def.ChunkSize
	}
	if p.CellBatchSize == 0 {
		p.CellBatchSize = def.CellBatchSize
	}
	if p.ChunkTimeout == 0 {
		p.ChunkTimeout = def.ChunkTimeout
	}
	return p.WithDefaults()
}

// generateChunk inserts n rows and their cells in one transaction and
// returns the order of the first row. Columns are read inside the
// transaction so a column created between chunks gets cells in later ones.
func (b *Backend) generateChunk(ctx context.Context, db *sqlx.DB, chunk int, tableID int64, n int, policy types.BatchPolicy, gen *synth.Generator) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, policy.ChunkTimeout)
	defer cancel()

	var first int64
	err := inTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := b.lockTable(ctx, tx, tableID); err != nil {
			return err
		}
		columns, err := loadColumns(ctx, tx, tableID)
		if err != nil {
			return err
		}
		if err := get(ctx, tx, &first, nextOrderSQL, tableID); err != nil {
			return fmt.Errorf("next row order: %w", err)
		}

		stmt, args := rowInsert(tableID, first, n)
		if _, err := exec(ctx, tx, stmt, args...); err != nil {
			return fmt.Errorf("insert rows: %w", err)
		}

		var keys []rowKey
		if err := selectAll(ctx, tx, &keys,
			`SELECT id, sort_order FROM grid_row WHERE table_id = ? AND sort_order BETWEEN ? AND ? ORDER BY sort_order`,
			tableID, first, first+int64(n)-1); err != nil {
			return fmt.Errorf("select new rows: %w", err)
		}

		cells := make([]types.Cell, 0, len(keys)*len(columns))
		for _, k := range keys {
			for _, col := range columns {
				value, numeric := gen.Value(col).Slots()
				cells = append(cells, types.Cell{RowID: k.ID, ColumnID: col.ID, Value: value, NumericValue: numeric})
			}
		}
		if err := insertCells(ctx, tx, cells, policy.CellBatchSize); err != nil {
			return err
		}

		if b.chunkHook != nil {
			if err := b.chunkHook(chunk); err != nil {
				return err
			}
		}
		return nil
	})
	return first, err
}

// rowInsert builds one multi-row INSERT of n rows with consecutive orders.
func rowInsert(tableID, first int64, n int) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, 2*n)
	sb.WriteString("INSERT INTO grid_row (table_id, sort_order) VALUES ")
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?)")
		args = append(args, tableID, first+int64(i))
	}
	return sb.String(), args
}
