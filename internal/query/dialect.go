package query

import (
	"fmt"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// Dialect selects SQL syntax differences between the supported databases.
type Dialect int

// Supported dialects.
const (
	SQLite Dialect = iota
	Postgres
	MySQL
)

// DialectFor maps a backend name from types.Config to a Dialect.
func DialectFor(backend string) (Dialect, error) {
	switch backend {
	case types.BackendSQLite:
		return SQLite, nil
	case types.BackendPostgres:
		return Postgres, nil
	case types.BackendMySQL:
		return MySQL, nil
	default:
		return 0, fmt.Errorf("%w: %q", types.ErrBackendUnknown, backend)
	}
}

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	return d.String()
}

// SQLiteLower is the Unicode-aware lower-casing function the store
// registers with the SQLite driver. SQLite's built-in LOWER folds ASCII
// only.
const SQLiteLower = "gb_lower"

// castText renders a numeric expr converted to text. SQLite renders a REAL
// with a trailing ".0", so whole numbers go through INTEGER first and 25
// reads "25" on every backend.
func (d Dialect) castText(expr string) string {
	switch d {
	case MySQL:
		return "CAST(" + expr + " AS CHAR)"
	case SQLite:
		return "CASE WHEN " + expr + " = CAST(" + expr + " AS INTEGER) THEN CAST(CAST(" + expr +
			" AS INTEGER) AS TEXT) ELSE CAST(" + expr + " AS TEXT) END"
	default:
		return "CAST(" + expr + " AS TEXT)"
	}
}

// lower renders expr lower-cased.
func (d Dialect) lower(expr string) string {
	if d == SQLite {
		return SQLiteLower + "(" + expr + ")"
	}
	return "LOWER(" + expr + ")"
}

// orderTerm renders one ORDER BY term with nulls sorted after all values in
// either direction. MySQL has no NULLS LAST and sorts NULL first ascending,
// so it orders by the null test first.
func (d Dialect) orderTerm(expr string, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	if d == MySQL {
		return fmt.Sprintf("%s IS NULL, %s %s", expr, expr, dir)
	}
	return fmt.Sprintf("%s %s NULLS LAST", expr, dir)
}
