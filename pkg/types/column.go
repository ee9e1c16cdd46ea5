package types

import "strings"

// ColumnType selects which physical slot of a cell holds the value.
// Type is fixed when the column is created.
type ColumnType string

// Column types.
const (
	ColumnText   ColumnType = "TEXT"
	ColumnNumber ColumnType = "NUMBER"
)

// ParseColumnType accepts "text"/"number" in any case.
func ParseColumnType(s string) (ColumnType, error) {
	switch ColumnType(strings.ToUpper(strings.TrimSpace(s))) {
	case ColumnText:
		return ColumnText, nil
	case ColumnNumber:
		return ColumnNumber, nil
	default:
		return "", ErrInvalidColumnType
	}
}

// Valid reports whether t is a known column type.
func (t ColumnType) Valid() bool {
	return t == ColumnText || t == ColumnNumber
}

// Column is a typed attribute of a table. Order is dense and table-scoped,
// assigned as the count of existing columns at creation.
type Column struct {
	ID      int64      `json:"id"`
	TableID int64      `json:"table_id"`
	Name    string     `json:"name"`
	Type    ColumnType `json:"type"`
	Order   int        `json:"order"`
}

// ColumnByID returns the column with the given id, or false.
func ColumnByID(columns []Column, id int64) (Column, bool) {
	for _, c := range columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}
