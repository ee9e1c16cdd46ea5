package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Page size bounds for ListViewPage.
const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// ViewQuery is one page request against a table.
type ViewQuery struct {
	TableID int64        `json:"table_id"`
	Limit   int          `json:"limit"`
	Cursor  *int64       `json:"cursor,omitempty"` // id of the last row of the previous page
	Sorts   []SortSpec   `json:"sorts,omitempty"`
	Filters []FilterSpec `json:"filters,omitempty"`
	Search  string       `json:"search,omitempty"`
}

// ValidateLimit checks that Limit is within 1..MaxPageSize.
func (q ViewQuery) ValidateLimit() error {
	if q.Limit < 1 || q.Limit > MaxPageSize {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidLimit, q.Limit, MaxPageSize)
	}
	return nil
}

// Key identifies the result ordering and membership of the query, ignoring
// the cursor. A cursor obtained under one key is meaningless under another.
func (q ViewQuery) Key() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "t=%d;l=%d", q.TableID, q.Limit)
	sorts := append([]SortSpec(nil), q.Sorts...)
	sort.SliceStable(sorts, func(i, j int) bool { return sorts[i].Priority < sorts[j].Priority })
	for _, s := range sorts {
		fmt.Fprintf(&sb, ";s=%d:%s", s.ColumnID, s.Direction)
	}
	filters := append([]FilterSpec(nil), q.Filters...)
	sort.SliceStable(filters, func(i, j int) bool { return filters[i].ColumnID < filters[j].ColumnID })
	for _, f := range filters {
		fmt.Fprintf(&sb, ";f=%d:%s:%q", f.ColumnID, f.Operator, f.Value)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		fmt.Fprintf(&sb, ";q=%q", s)
	}
	return sb.String()
}

// Query builds the page request for a saved view.
func (v View) Query(limit int, cursor *int64) ViewQuery {
	q := ViewQuery{
		TableID: v.TableID,
		Limit:   limit,
		Cursor:  cursor,
		Sorts:   append([]SortSpec(nil), v.Sorts...),
		Filters: append([]FilterSpec(nil), v.Filters...),
	}
	if v.SearchQuery != nil {
		q.Search = *v.SearchQuery
	}
	return q
}

// RowRecord is one hydrated row. Cells maps column id to value and is
// sparse until Record materialises it against the table's columns.
type RowRecord struct {
	ID    int64
	Order int64
	Cells map[int64]CellValue
}

// Value returns the cell value for a column, Empty when absent.
func (r RowRecord) Value(columnID int64) CellValue {
	return r.Cells[columnID]
}

// ColumnKey is the record key for a column: column_<id>.
func ColumnKey(columnID int64) string {
	return fmt.Sprintf("column_%d", columnID)
}

// Record returns the dense form {id, order, column_<id>: value, ...} with
// one entry per column. Empty cells are nil.
func (r RowRecord) Record(columns []Column) map[string]any {
	rec := make(map[string]any, len(columns)+2)
	rec["id"] = r.ID
	rec["order"] = r.Order
	for _, c := range columns {
		rec[ColumnKey(c.ID)] = r.Cells[c.ID].Interface()
	}
	return rec
}

// Page is one result of ListViewPage.
type Page struct {
	Items       []RowRecord
	NextCursor  *int64
	HasNextPage bool
	Columns     []Column
}

// Records returns the dense record form of every item.
func (p *Page) Records() []map[string]any {
	out := make([]map[string]any, len(p.Items))
	for i, item := range p.Items {
		out[i] = item.Record(p.Columns)
	}
	return out
}

// MarshalJSON encodes items as dense records.
func (p *Page) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Items       []map[string]any `json:"items"`
		NextCursor  *int64           `json:"next_cursor,omitempty"`
		HasNextPage bool             `json:"has_next_page"`
		Columns     []Column         `json:"columns"`
	}{p.Records(), p.NextCursor, p.HasNextPage, p.Columns})
}

// GenerateResult reports the rows created by GenerateRows.
type GenerateResult struct {
	Count      int   `json:"count"`
	FirstOrder int64 `json:"first_order"`
	LastOrder  int64 `json:"last_order"`
}
