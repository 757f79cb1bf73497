package assertions

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStatusMismatch = errors.New("status mismatch")
	ErrCheckFailed    = errors.New("check failed")
	ErrSchema         = errors.New("schema validation failed")
)

// StatusMismatchError is returned when the response status differs from
// the expected one.
type StatusMismatchError struct {
	Expected int
	Actual   int
	Body     any
}

func (e *StatusMismatchError) Error() string {
	return fmt.Sprintf("expected status %d, got %d: %s", e.Expected, e.Actual, compact(e.Body))
}

func (e *StatusMismatchError) Unwrap() error { return ErrStatusMismatch }

// CheckFailedError is returned when a check expression does not evaluate
// to true.
type CheckFailedError struct {
	Expression string
	Actual     any
}

func (e *CheckFailedError) Error() string {
	return fmt.Sprintf("check %q evaluated to %s", e.Expression, compact(e.Actual))
}

func (e *CheckFailedError) Unwrap() error { return ErrCheckFailed }

// SchemaError lists the schema violations of a body.
type SchemaError struct {
	Schema     string
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s: %s", e.Schema, strings.Join(e.Violations, "; "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
