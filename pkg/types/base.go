package types

import "time"

// Base is a named container of tables owned by exactly one user.
type Base struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	OwnerUserID string    `json:"owner_user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Table belongs to exactly one base and holds ordered columns and rows.
// Columns is populated by GetTable and left nil by ListTables.
type Table struct {
	ID      int64    `json:"id"`
	BaseID  int64    `json:"base_id"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns,omitempty"`
}

// Row is one record of a table. Order is a per-table, monotonically
// increasing position used as the default sort and as the final tie-break.
type Row struct {
	ID      int64 `json:"id"`
	TableID int64 `json:"table_id"`
	Order   int64 `json:"order"`
}
