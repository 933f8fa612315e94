package cqlparser

import (
	"errors"
	"fmt"
)

var (
	// ErrTrailingInput is returned under Options.RequireEOF when a statement
	// parsed but did not consume the whole input.
	ErrTrailingInput = errors.New("trailing input after statement")
	// ErrNoFields is returned under Options.RequireFields for a SELECT
	// without fields.
	ErrNoFields = errors.New("select has no fields")
)

type trailingInputError struct {
	offset int
	cause  *SyntaxError
}

func (e *trailingInputError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s at offset %d", ErrTrailingInput, e.offset)
	}
	return fmt.Sprintf("%s at offset %d (%s)", ErrTrailingInput, e.offset, e.cause)
}

// Unwrap lets callers match ErrTrailingInput with errors.Is and reach the
// syntax error that stopped the statement with errors.As.
func (e *trailingInputError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrTrailingInput}
	}
	return []error{ErrTrailingInput, e.cause}
}
