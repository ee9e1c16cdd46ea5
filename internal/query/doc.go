// Package query compiles page requests against the EAV cell store into
// parameterized SQL.
//
// Compilation happens in two steps. Build validates a types.ViewQuery against
// the table's columns and produces a Plan: the list of cell joins, the
// predicates and the sort keys. Dialect.Compile renders a Plan to SQL with
// "?" placeholders for SQLite, PostgreSQL or MySQL. Plans carry no SQL text,
// so the first step is testable without a database.
//
// Physical schema assumed by the compiler:
//
//	grid_row(id, table_id, sort_order)
//	grid_cell(row_id, column_id, value, numeric_value)
package query
