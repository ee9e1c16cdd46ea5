package types

import "errors"

// Authorization and lookup errors. ErrAccessDenied is returned both when a
// resource does not exist and when it belongs to another user, so callers
// cannot probe for the existence of other users' data.
var (
	ErrAccessDenied = errors.New("not found or access denied")
	ErrNotFound     = errors.New("entity not found")
)

// Validation errors. These are returned before any storage is touched.
var (
	ErrInvalidName          = errors.New("invalid name")
	ErrInvalidColumnType    = errors.New("invalid column type")
	ErrInvalidOperator      = errors.New("invalid filter operator")
	ErrInvalidDirection     = errors.New("invalid sort direction")
	ErrOperatorNotSupported = errors.New("operator not supported for column type")
	ErrInvalidFilterValue   = errors.New("invalid filter value")
	ErrInvalidLimit         = errors.New("invalid page limit")
	ErrInvalidCount         = errors.New("count must be positive")
	ErrInvalidNumber        = errors.New("value is not a number")
	ErrDuplicateColumn      = errors.New("column referenced more than once")
	ErrInvalidBatchPolicy   = errors.New("invalid batch policy")
)

// ErrTransient marks storage failures that may succeed on retry: timeouts,
// busy databases, deadlocks and lock wait timeouts.
var ErrTransient = errors.New("transient storage error")

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

var validationErrors = []error{
	ErrInvalidName,
	ErrInvalidColumnType,
	ErrInvalidOperator,
	ErrInvalidDirection,
	ErrOperatorNotSupported,
	ErrInvalidFilterValue,
	ErrInvalidLimit,
	ErrInvalidCount,
	ErrInvalidNumber,
	ErrDuplicateColumn,
	ErrInvalidBatchPolicy,
}

// IsValidation reports whether err wraps one of the validation errors.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
