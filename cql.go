// Package cqlparser parses a subset of the Cassandra Query Language.
//
// The parser is a backtracking recursive-descent parser that works directly on
// the input text: identifiers in the result are substrings of the input and
// nothing is tokenized ahead of time. A call parses exactly one statement.
// Input that follows a complete statement is ignored unless RequireEOF is set.
package cqlparser

import (
	"github.com/kevin-cantwell/cqlparser/internal/ast"
	"github.com/kevin-cantwell/cqlparser/internal/buffer"
)

// Options tighten the default, lenient parse.
type Options struct {
	// RequireEOF rejects input with anything but whitespace after the
	// statement.
	RequireEOF bool
	// RequireFields rejects a SELECT with an empty field list.
	RequireFields bool
}

// Parse parses one statement from input. The bytes are copied once; the
// result does not alias input.
func Parse(input []byte) ([]Statement, error) {
	return parse(buffer.FromBytes(input), Options{})
}

// ParseString parses one statement from input without copying it.
func ParseString(input string) ([]Statement, error) {
	return parse(buffer.New(input), Options{})
}

// ParseWithOptions parses one statement from input under opts.
func ParseWithOptions(input string, opts Options) ([]Statement, error) {
	return parse(buffer.New(input), opts)
}

// ParseStatement parses one statement and returns the input it did not
// consume.
func ParseStatement(input string) (Statement, string, error) {
	stmt, rest, err := ast.NewParser(buffer.New(input)).ParseStatement()
	if err != nil {
		return nil, input, err
	}
	return stmt, rest.String(), nil
}

func parse(in buffer.View, opts Options) ([]Statement, error) {
	p := ast.NewParser(in)
	stmt, rest, err := p.ParseStatement()
	if err != nil {
		return nil, err
	}

	if opts.RequireEOF {
		if tail := rest.Skip(rest.Span(isSpace)); !tail.Empty() {
			return nil, &trailingInputError{cause: p.Furthest(), offset: tail.Pos()}
		}
	}
	if opts.RequireFields {
		if sel, ok := stmt.(*ast.Select); ok && len(sel.Select) == 0 {
			return nil, ErrNoFields
		}
	}

	return []Statement{stmt}, nil
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}
