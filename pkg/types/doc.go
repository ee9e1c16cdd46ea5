// Package types defines the Engine interface, the base/table/column/row/cell
// and view entity types, the tagged cell value, and the standard error types
// for the gridbase table engine.
package types
