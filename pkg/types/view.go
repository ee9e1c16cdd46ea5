package types

import (
	"fmt"
	"strconv"
	"strings"
)

// SortDirection is the direction of one sort key.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Valid reports whether d is asc or desc.
func (d SortDirection) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// FilterOperator is the comparison applied by a FilterSpec.
type FilterOperator string

// Filter operators. gt and lt apply to NUMBER columns only; eq compares
// numerically on NUMBER columns and exactly on TEXT columns; the rest work
// on the text representation of either type.
const (
	OpGreaterThan FilterOperator = "gt"
	OpLessThan    FilterOperator = "lt"
	OpNotEmpty    FilterOperator = "not_empty"
	OpEmpty       FilterOperator = "empty"
	OpContains    FilterOperator = "contains"
	OpNotContains FilterOperator = "not_contains"
	OpEqual       FilterOperator = "eq"
)

var validOperators = map[FilterOperator]bool{
	OpGreaterThan: true,
	OpLessThan:    true,
	OpNotEmpty:    true,
	OpEmpty:       true,
	OpContains:    true,
	OpNotContains: true,
	OpEqual:       true,
}

// Valid reports whether op is a known operator.
func (op FilterOperator) Valid() bool {
	return validOperators[op]
}

// NeedsValue reports whether the operator compares against FilterSpec.Value.
func (op FilterOperator) NeedsValue() bool {
	return op != OpEmpty && op != OpNotEmpty
}

// SortSpec orders a view by one column. Lower Priority sorts first.
type SortSpec struct {
	ColumnID  int64         `json:"column_id"`
	Direction SortDirection `json:"direction"`
	Priority  int           `json:"priority"`
}

// Validate checks the direction.
func (s SortSpec) Validate() error {
	if !s.Direction.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, s.Direction)
	}
	return nil
}

// FilterSpec restricts a view by one column.
type FilterSpec struct {
	ColumnID int64          `json:"column_id"`
	Operator FilterOperator `json:"operator"`
	Value    string         `json:"value"`
}

// Validate checks the operator against the column type and, for numeric
// comparisons, that the value parses as a number.
func (f FilterSpec) Validate(columnType ColumnType) error {
	if !f.Operator.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOperator, f.Operator)
	}
	switch f.Operator {
	case OpGreaterThan, OpLessThan:
		if columnType != ColumnNumber {
			return fmt.Errorf("%w: %s on %s column", ErrOperatorNotSupported, f.Operator, columnType)
		}
	}
	if f.NumericComparison(columnType) {
		if _, err := f.Number(); err != nil {
			return err
		}
	}
	return nil
}

// NumericComparison reports whether the filter compares the numeric slot.
func (f FilterSpec) NumericComparison(columnType ColumnType) bool {
	switch f.Operator {
	case OpGreaterThan, OpLessThan:
		return true
	case OpEqual:
		return columnType == ColumnNumber
	}
	return false
}

// Number parses Value as a float.
func (f FilterSpec) Number() (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(f.Value), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidFilterValue, f.Value)
	}
	return n, nil
}

// View is a named, persisted combination of search, sort and filter
// settings for a table.
type View struct {
	ID          int64        `json:"id"`
	TableID     int64        `json:"table_id"`
	Name        string       `json:"name"`
	SearchQuery *string      `json:"search_query,omitempty"`
	Sorts       []SortSpec   `json:"sorts"`
	Filters     []FilterSpec `json:"filters"`
}

// ViewInput carries the full editable state of a view. Editing a view
// replaces all of its sorts and filters with the ones given here.
type ViewInput struct {
	Name        string       `json:"name"`
	SearchQuery *string      `json:"search_query,omitempty"`
	Sorts       []SortSpec   `json:"sorts"`
	Filters     []FilterSpec `json:"filters"`
}

// Validate checks the input against the table's columns. Unlike page
// queries, saving a view rejects references to unknown columns.
func (in ViewInput) Validate(columns []Column) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrInvalidName
	}
	seen := make(map[int64]bool, len(in.Sorts))
	for _, s := range in.Sorts {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, ok := ColumnByID(columns, s.ColumnID); !ok {
			return fmt.Errorf("sort column %d: %w", s.ColumnID, ErrNotFound)
		}
		if seen[s.ColumnID] {
			return fmt.Errorf("%w: sort column %d", ErrDuplicateColumn, s.ColumnID)
		}
		seen[s.ColumnID] = true
	}
	seen = make(map[int64]bool, len(in.Filters))
	for _, f := range in.Filters {
		col, ok := ColumnByID(columns, f.ColumnID)
		if !ok {
			return fmt.Errorf("filter column %d: %w", f.ColumnID, ErrNotFound)
		}
		if err := f.Validate(col.Type); err != nil {
			return err
		}
		if seen[f.ColumnID] {
			return fmt.Errorf("%w: filter column %d", ErrDuplicateColumn, f.ColumnID)
		}
		seen[f.ColumnID] = true
	}
	return nil
}
