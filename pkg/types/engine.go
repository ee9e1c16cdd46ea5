package types

import "context"

// Engine is the inbound interface of the table engine. Every call carries
// the current user's id; table-scoped calls re-verify on each call that the
// table's base belongs to that user and return ErrAccessDenied otherwise.
type Engine interface {
	// Attach connects the engine to the backend described by config.
	// Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error

	CreateBase(ctx context.Context, userID, name string) (*Base, error)
	ListBases(ctx context.Context, userID string) ([]Base, error)
	DeleteBase(ctx context.Context, userID string, baseID int64) error

	// CreateTable creates a table seeded with default columns and rows.
	CreateTable(ctx context.Context, userID string, baseID int64, name string) (*Table, error)
	// ListTables returns the base's tables ordered by id, without columns.
	ListTables(ctx context.Context, userID string, baseID int64) ([]Table, error)
	// GetTable returns the table with its columns ordered by order.
	GetTable(ctx context.Context, userID string, tableID int64) (*Table, error)

	// CreateColumn appends a column and back-fills an empty cell for
	// every existing row.
	CreateColumn(ctx context.Context, userID string, tableID int64, name string, columnType ColumnType) (*Column, error)

	// CreateRow appends a row and back-fills an empty cell for every column.
	CreateRow(ctx context.Context, userID string, tableID int64) (*Row, error)

	// UpdateCell writes raw user input into a cell, applying the column's
	// type-dispatch rule.
	UpdateCell(ctx context.Context, userID string, rowID, columnID int64, raw string) (*Cell, error)

	// ListViewPage returns one keyset page of the table.
	ListViewPage(ctx context.Context, userID string, q ViewQuery) (*Page, error)

	// GenerateRows bulk-inserts count rows with synthetic values, one
	// transaction per chunk. A zero policy uses the configured default.
	GenerateRows(ctx context.Context, userID string, tableID int64, count int, policy BatchPolicy) (*GenerateResult, error)

	CreateView(ctx context.Context, userID string, tableID int64, in ViewInput) (*View, error)
	// EditView replaces the view's name, search, sorts and filters.
	EditView(ctx context.Context, userID string, viewID int64, in ViewInput) (*View, error)
	ListViews(ctx context.Context, userID string, tableID int64) ([]View, error)
	GetView(ctx context.Context, userID string, viewID int64) (*View, error)
	DeleteView(ctx context.Context, userID string, viewID int64) error

	// ExportTable writes every row as one JSON object per line keyed by
	// column name. Returns the number of rows written.
	ExportTable(ctx context.Context, userID string, tableID int64, path string) (int, error)
	// ImportTable appends one row per JSONL record, matching keys to
	// column names. Unknown keys are ignored.
	ImportTable(ctx context.Context, userID string, tableID int64, path string) (int, error)
}
