package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// exportPageSize is the page size used to walk a table during export.
const exportPageSize = types.MaxPageSize

// readJSONL reads a JSONL file and returns each non-empty, parseable line
// as a json.RawMessage. Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file: temp file in the
// same directory, fsync, rename.
func writeJSONL(path string, records []json.RawMessage) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", step, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ExportTable writes every row of the table, in order, as one JSON object
// per line keyed by column name. Empty cells are written as null.
func (b *Backend) ExportTable(ctx context.Context, userID string, tableID int64, path string) (int, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}
	db, err := b.conn()
	if err != nil {
		return 0, err
	}
	if err := authorizeTable(ctx, db, userID, tableID); err != nil {
		return 0, classify(err)
	}
	columns, err := loadColumns(ctx, db, tableID)
	if err != nil {
		return 0, err
	}

	var records []json.RawMessage
	q := types.ViewQuery{TableID: tableID, Limit: exportPageSize}
	for {
		page, err := b.page(ctx, db, q, columns)
		if err != nil {
			return 0, err
		}
		for _, item := range page.Items {
			rec := make(map[string]any, len(columns))
			for _, col := range columns {
				rec[col.Name] = item.Value(col.ID).Interface()
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return 0, fmt.Errorf("encoding row %d: %w", item.ID, err)
			}
			records = append(records, data)
		}
		if !page.HasNextPage {
			break
		}
		q.Cursor = page.NextCursor
	}

	if err := writeJSONL(path, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ImportTable appends one row per JSONL record in a single transaction.
// Keys are matched to column names; unknown keys are ignored. Values are
// written with the same type-dispatch rule as UpdateCell.
func (b *Backend) ImportTable(ctx context.Context, userID string, tableID int64, path string) (int, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}
	records, err := readJSONL(path)
	if err != nil {
		return 0, err
	}
	db, err := b.conn()
	if err != nil {
		return 0, err
	}

	imported := 0
	err = inTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := authorizeTable(ctx, tx, userID, tableID); err != nil {
			return err
		}
		columns, err := loadColumns(ctx, tx, tableID)
		if err != nil {
			return err
		}
		byName := make(map[string]types.Column, len(columns))
		for _, col := range columns {
			if _, dup := byName[col.Name]; !dup {
				byName[col.Name] = col
			}
		}

		for i, raw := range records {
			var rec map[string]any
			if err := json.Unmarshal(raw, &rec); err != nil {
				continue
			}
			row, err := b.appendRow(ctx, tx, tableID)
			if err != nil {
				return err
			}
			for key, value := range rec {
				col, ok := byName[key]
				if !ok || value == nil {
					continue
				}
				v, err := types.ParseCellInput(inputString(value), col.Type, b.config.StrictNumbers)
				if err != nil {
					return fmt.Errorf("record %d column %q: %w", i+1, key, err)
				}
				cell := types.Cell{RowID: row.ID, ColumnID: col.ID}
				cell.Value, cell.NumericValue = v.Slots()
				if err := b.writeCell(ctx, tx, cell); err != nil {
					return err
				}
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}

// inputString renders a decoded JSON value as cell input.
func inputString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		data, _ := json.Marshal(x)
		return string(data)
	}
}
