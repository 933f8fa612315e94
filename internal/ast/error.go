package ast

import (
	"fmt"

	"github.com/kevin-cantwell/cqlparser/internal/buffer"
)

// nearLen bounds how much input a SyntaxError quotes.
const nearLen = 16

// SyntaxError reports where parsing stopped and what the grammar expected
// there.
type SyntaxError struct {
	// Offset is the 0-indexed byte offset into the statement text.
	Offset int
	// Expected describes the token the grammar required at Offset.
	Expected string
	// Near is a short excerpt of the input starting at Offset.
	Near string
	// Fatal errors come from a literal that was recognized but is invalid
	// (integer overflow, missing closing quote). Alternatives and optional
	// clauses never recover from them.
	Fatal bool
}

func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("syntax error at offset %d near end of input: expected %s", e.Offset, e.Expected)
	}
	return fmt.Sprintf("syntax error at offset %d near %q: expected %s", e.Offset, e.Near, e.Expected)
}

func newSyntaxError(at buffer.View, expected string, fatal bool) *SyntaxError {
	return &SyntaxError{
		Offset:   at.Pos(),
		Expected: expected,
		Near:     at.Take(nearLen).String(),
		Fatal:    fatal,
	}
}

func isFatal(err error) bool {
	se, ok := err.(*SyntaxError)
	return ok && se.Fatal
}
