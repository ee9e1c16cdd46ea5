package store

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"

	"github.com/mesh-intelligence/gridbase/internal/query"
)

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(query.SQLiteLower, 1, lowerUnicode)
}

// lowerUnicode lower-cases a text argument with Unicode case mapping.
func lowerUnicode(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}
