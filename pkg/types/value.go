package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ValueKind tags a CellValue.
type ValueKind int

// Value kinds.
const (
	KindEmpty ValueKind = iota
	KindText
	KindNumber
)

// CellValue is the tagged value of one cell: empty, text or number.
// Rows are held as sparse column-id to CellValue mappings internally and
// only turned into dense records at the read boundary.
type CellValue struct {
	Kind   ValueKind
	Text   string
	Number float64
}

// Empty returns the empty value.
func Empty() CellValue { return CellValue{} }

// Text returns a text value. The empty string is a value, not Empty.
func Text(s string) CellValue { return CellValue{Kind: KindText, Text: s} }

// Number returns a numeric value.
func Number(f float64) CellValue { return CellValue{Kind: KindNumber, Number: f} }

// IsEmpty reports whether the cell holds no user data.
func (v CellValue) IsEmpty() bool { return v.Kind == KindEmpty }

// Display renders the value for presentation; Empty renders as "".
func (v CellValue) Display() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// Slots maps the value onto the physical text and numeric columns.
// At most one of the returned pointers is non-nil.
func (v CellValue) Slots() (*string, *float64) {
	switch v.Kind {
	case KindText:
		s := v.Text
		return &s, nil
	case KindNumber:
		f := v.Number
		return nil, &f
	default:
		return nil, nil
	}
}

// Interface returns the value as string, float64 or nil.
func (v CellValue) Interface() any {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return v.Number
	default:
		return nil
	}
}

// MarshalJSON encodes text as a string, numbers as a number and Empty as null.
func (v CellValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Cell is the physical EAV record for one (row, column) pair. For a TEXT
// column NumericValue is always nil; for a NUMBER column Value is always nil.
// Both nil means the cell is empty.
type Cell struct {
	RowID        int64    `json:"row_id" db:"row_id"`
	ColumnID     int64    `json:"column_id" db:"column_id"`
	Value        *string  `json:"value" db:"value"`
	NumericValue *float64 `json:"numeric_value" db:"numeric_value"`
}

// ReadTypedValue applies the type-dispatch rule: NUMBER columns read the
// numeric slot, TEXT columns read the text slot.
func ReadTypedValue(cell Cell, column Column) CellValue {
	if column.Type == ColumnNumber {
		if cell.NumericValue == nil {
			return Empty()
		}
		return Number(*cell.NumericValue)
	}
	if cell.Value == nil {
		return Empty()
	}
	return Text(*cell.Value)
}

// ParseCellInput converts raw user input into the value stored for a column
// of the given type. Text is stored verbatim. Numbers are parsed from the
// trimmed input. Blank input clears the cell. Other input that is not a
// finite number also clears the cell, or fails with ErrInvalidNumber when
// strict is set.
func ParseCellInput(raw string, columnType ColumnType, strict bool) (CellValue, error) {
	switch columnType {
	case ColumnText:
		return Text(raw), nil
	case ColumnNumber:
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return Empty(), nil
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			if strict {
				return Empty(), ErrInvalidNumber
			}
			return Empty(), nil
		}
		return Number(f), nil
	default:
		return Empty(), ErrInvalidColumnType
	}
}
