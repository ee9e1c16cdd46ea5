package store

import (
	"context"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// defaultColumns are created in every new table, in this order.
var defaultColumns = []struct {
	name string
	typ  types.ColumnType
}{
	{"Name", types.ColumnText},
	{"Notes", types.ColumnText},
	{"Number", types.ColumnNumber},
}

// DefaultRowCount is the number of empty rows in a new table.
const DefaultRowCount = 3

// seedTable creates the default columns and rows of a new table and returns
// the columns.
func (b *Backend) seedTable(ctx context.Context, q ext, tableID int64) ([]types.Column, error) {
	columns := make([]types.Column, 0, len(defaultColumns))
	for _, dc := range defaultColumns {
		col, err := b.appendColumn(ctx, q, tableID, dc.name, dc.typ)
		if err != nil {
			return nil, err
		}
		columns = append(columns, *col)
	}
	for i := 0; i < DefaultRowCount; i++ {
		if _, err := b.appendRow(ctx, q, tableID); err != nil {
			return nil, err
		}
	}
	return columns, nil
}
