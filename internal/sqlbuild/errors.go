package sqlbuild

import (
	"errors"
	"fmt"
)

// ErrConditionsRequired is returned by the guarded bulk builders when no
// usable WHERE condition was supplied.
var ErrConditionsRequired = errors.New("conditions required: refusing to touch every row")

// ValidationError reports a missing or invalid builder field. Nothing is
// emitted when a builder returns one.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError or
// ErrConditionsRequired.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrConditionsRequired)
}

// Sentinels returned in place of SQL while the builder state is incomplete.
// They are SQL comments so a preview pane can show them as-is.
const (
	SentinelUpdateNoTable   = "-- Select a table to build an UPDATE statement"
	SentinelUpdateNoColumns = "-- Choose at least one column to SET"
	SentinelCreateNoName    = "-- Enter a table name to generate the CREATE TABLE statement"
	SentinelCreateNoColumns = "-- Add at least one column to the table"
)

// IsSentinel reports whether s is one of the placeholder strings above.
func IsSentinel(s string) bool {
	switch s {
	case SentinelUpdateNoTable, SentinelUpdateNoColumns, SentinelCreateNoName, SentinelCreateNoColumns:
		return true
	}
	return false
}
