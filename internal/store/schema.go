package store

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/gridbase/internal/query"
)

// schemaTypes holds the per-dialect column types substituted into the DDL.
type schemaTypes struct {
	id   string // autoincrement primary key
	ref  string // foreign key to an id
	real string // numeric cell slot
	text string // short indexed-free text
}

func typesFor(d query.Dialect) schemaTypes {
	switch d {
	case query.Postgres:
		return schemaTypes{id: "BIGSERIAL PRIMARY KEY", ref: "BIGINT", real: "DOUBLE PRECISION", text: "TEXT"}
	case query.MySQL:
		return schemaTypes{id: "BIGINT AUTO_INCREMENT PRIMARY KEY", ref: "BIGINT", real: "DOUBLE", text: "VARCHAR(255)"}
	default:
		return schemaTypes{id: "INTEGER PRIMARY KEY AUTOINCREMENT", ref: "INTEGER", real: "REAL", text: "TEXT"}
	}
}

// Schema DDL. {id}, {ref}, {real} and {text} are replaced per dialect.
// Rows and cells are removed only by cascade from their table.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS grid_base (
    id {id},
    name {text} NOT NULL,
    owner_user_id {text} NOT NULL,
    created_at {text} NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS grid_table (
    id {id},
    base_id {ref} NOT NULL,
    name {text} NOT NULL,
    FOREIGN KEY (base_id) REFERENCES grid_base(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS grid_column (
    id {id},
    table_id {ref} NOT NULL,
    name {text} NOT NULL,
    type {text} NOT NULL,
    sort_order INTEGER NOT NULL,
    FOREIGN KEY (table_id) REFERENCES grid_table(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS grid_row (
    id {id},
    table_id {ref} NOT NULL,
    sort_order {ref} NOT NULL,
    UNIQUE (table_id, sort_order),
    FOREIGN KEY (table_id) REFERENCES grid_table(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS grid_cell (
    row_id {ref} NOT NULL,
    column_id {ref} NOT NULL,
    value TEXT,
    numeric_value {real},
    UNIQUE (row_id, column_id),
    FOREIGN KEY (row_id) REFERENCES grid_row(id) ON DELETE CASCADE,
    FOREIGN KEY (column_id) REFERENCES grid_column(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS grid_view (
    id {id},
    table_id {ref} NOT NULL,
    name {text} NOT NULL,
    search_query TEXT,
    FOREIGN KEY (table_id) REFERENCES grid_table(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS view_sort (
    view_id {ref} NOT NULL,
    column_id {ref} NOT NULL,
    direction {text} NOT NULL,
    priority INTEGER NOT NULL,
    UNIQUE (view_id, column_id),
    FOREIGN KEY (view_id) REFERENCES grid_view(id) ON DELETE CASCADE,
    FOREIGN KEY (column_id) REFERENCES grid_column(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS view_filter (
    view_id {ref} NOT NULL,
    column_id {ref} NOT NULL,
    operator {text} NOT NULL,
    value TEXT NOT NULL,
    UNIQUE (view_id, column_id),
    FOREIGN KEY (view_id) REFERENCES grid_view(id) ON DELETE CASCADE,
    FOREIGN KEY (column_id) REFERENCES grid_column(id) ON DELETE CASCADE
)`,
}

// schemaFor returns the DDL statements for d.
func schemaFor(d query.Dialect) []string {
	t := typesFor(d)
	r := strings.NewReplacer("{id}", t.id, "{ref}", t.ref, "{real}", t.real, "{text}", t.text)
	stmts := make([]string, len(schemaDDL))
	for i, ddl := range schemaDDL {
		stmts[i] = r.Replace(ddl)
	}
	return stmts
}

// createSchema executes the DDL one statement at a time; the MySQL driver
// rejects multi-statement Exec by default.
func createSchema(db *sqlx.DB, d query.Dialect) error {
	for _, stmt := range schemaFor(d) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
