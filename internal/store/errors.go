package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// MySQL server error numbers treated as transient.
const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// classify wraps err with types.ErrTransient when the driver reports a
// condition that may clear on retry. Other errors are returned unchanged.
func classify(err error) error {
	if err == nil || errors.Is(err, types.ErrTransient) || !isTransient(err) {
		return err
	}
	return fmt.Errorf("%w: %w", types.ErrTransient, err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 40 covers serialization_failure and deadlock_detected.
		switch {
		case pqErr.Code.Class() == "40":
			return true
		case pqErr.Code == "55P03", pqErr.Code == "57014": // lock_not_available, query_canceled
			return true
		}
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDeadlock || myErr.Number == mysqlLockWaitTimeout
	}

	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	return false
}
