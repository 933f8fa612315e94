package ast

import (
	"errors"
	"strings"

	"github.com/kevin-cantwell/cqlparser/internal/buffer"
)

// errNoMatch is returned by a production that did not match its input. It is
// recoverable: alternatives and optional clauses try something else. Details
// of the furthest such failure are kept on the Parser.
var errNoMatch = errors.New("no match")

// Parser is a backtracking recursive-descent parser working directly on a
// buffer view. Every production takes the remaining input and returns what is
// left after it, so backtracking is just reusing an earlier view.
//
// The only state a Parser keeps is diagnostic: the furthest position any
// production failed at and what was expected there. It never influences which
// alternative is chosen.
type Parser struct {
	input    buffer.View
	far      buffer.View
	expects  []string
	hasFar   bool
	fatalErr *SyntaxError
}

// NewParser returns a parser over the statement text.
func NewParser(input buffer.View) *Parser {
	return &Parser{input: input}
}

// Parse parses one statement. Input following a complete statement is
// ignored; use ParseStatement to inspect it.
func (p *Parser) Parse() ([]Statement, error) {
	stmt, _, err := p.ParseStatement()
	if err != nil {
		return nil, err
	}
	return []Statement{stmt}, nil
}

// ParseStatement parses one statement from the start of the input and returns
// it together with the unconsumed remainder. SELECT is tried first, then
// INSERT.
func (p *Parser) ParseStatement() (Statement, buffer.View, error) {
	rest, sel, err := p.parseSelect(p.input)
	if err == nil {
		return sel, rest, nil
	}
	if err != errNoMatch {
		return nil, p.input, err
	}

	rest, ins, err := p.parseInsert(p.input)
	if err == nil {
		return ins, rest, nil
	}
	if err != errNoMatch {
		return nil, p.input, err
	}

	return nil, p.input, p.Furthest()
}

// Furthest describes the furthest position at which any production failed,
// including failures that were later backtracked over. It is nil if nothing
// has failed yet.
func (p *Parser) Furthest() *SyntaxError {
	if p.fatalErr != nil {
		return p.fatalErr
	}
	if !p.hasFar {
		return nil
	}
	return newSyntaxError(p.far, strings.Join(p.expects, " or "), false)
}

// fail records a recoverable failure at the given position.
func (p *Parser) fail(at buffer.View, expected string) error {
	switch {
	case !p.hasFar || at.Pos() > p.far.Pos():
		p.far, p.expects, p.hasFar = at, []string{expected}, true
	case at.Pos() == p.far.Pos():
		for _, e := range p.expects {
			if e == expected {
				return errNoMatch
			}
		}
		p.expects = append(p.expects, expected)
	}
	return errNoMatch
}

// fatal records a failure nothing may recover from.
func (p *Parser) fatal(at buffer.View, expected string) error {
	p.fatalErr = newSyntaxError(at, expected, true)
	return p.fatalErr
}

type mark struct {
	far     buffer.View
	expects []string
	hasFar  bool
}

func (p *Parser) save() mark {
	return mark{far: p.far, expects: p.expects, hasFar: p.hasFar}
}

func (p *Parser) restore(m mark) {
	p.far, p.expects, p.hasFar = m.far, m.expects, m.hasFar
}

// ------------------------------ Statements ------------------------------

// parseSelect parses
//
//	SELECT <ws+> [DISTINCT <ws+>] [JSON <ws+>] <fields>
//	  <ws+> FROM <ws+> <table>
//	  [<ws+> WHERE <ws+> <predicates>]
//	  [<ws+> ORDER <ws+> BY <ws+> <ident> [<ws+> ASC|DESC]]
//	  [<ws+> LIMIT <ws+> <unsigned>]
//	  [<ws+> ALLOW FILTERING]
//
// in that order.
func (p *Parser) parseSelect(in buffer.View) (buffer.View, *Select, error) {
	stmt := &Select{}

	rest, err := p.keyword(in, SELECT)
	if err != nil {
		return in, nil, err
	}
	if rest, err = p.multispace1(rest); err != nil {
		return in, nil, err
	}

	rest, stmt.Distinct = p.parseFlag(rest, DISTINCT)
	rest, stmt.JSON = p.parseFlag(rest, JSON)

	if rest, stmt.Select, err = p.parseFields(rest); err != nil {
		return in, nil, err
	}
	if rest, stmt.From, err = p.parseFrom(rest); err != nil {
		return in, nil, err
	}
	if rest, stmt.Where, err = p.parseWhere(rest); err != nil {
		return in, nil, err
	}
	if rest, stmt.OrderBy, err = p.parseOrderBy(rest); err != nil {
		return in, nil, err
	}
	if rest, stmt.Limit, err = p.parseLimit(rest); err != nil {
		return in, nil, err
	}
	rest, stmt.AllowFiltering = p.parseAllowFiltering(rest)

	return rest, stmt, nil
}

// parseInsert matches the INSERT keyword only.
func (p *Parser) parseInsert(in buffer.View) (buffer.View, *Insert, error) {
	rest, err := p.keyword(in, INSERT)
	if err != nil {
		return in, nil, err
	}
	return rest, &Insert{}, nil
}

// ------------------------------ Clauses ------------------------------

// parseFlag matches an optional "<kw> <ws+>".
func (p *Parser) parseFlag(in buffer.View, kw Keyword) (buffer.View, bool) {
	rest, err := p.keyword(in, kw)
	if err != nil {
		return in, false
	}
	if rest, err = p.multispace1(rest); err != nil {
		return in, false
	}
	return rest, true
}

// parseFields parses zero or more fields, each optionally followed by a comma
// that may be surrounded by whitespace.
func (p *Parser) parseFields(in buffer.View) (buffer.View, []SelectElement, error) {
	var fields []SelectElement
	for {
		rest, field, err := p.parseField(in)
		if err == errNoMatch {
			return in, fields, nil
		}
		if err != nil {
			return in, nil, err
		}
		fields = append(fields, field)
		in = rest

		if rest, err := p.parseCommaSep(in); err == nil {
			in = rest
		}
	}
}

// parseField parses "<expr> [<ws+> AS <ws+> <ident>]".
func (p *Parser) parseField(in buffer.View) (buffer.View, SelectElement, error) {
	rest, expr, err := p.parseExpr(in)
	if err != nil {
		return in, SelectElement{}, err
	}
	rest, alias := p.parseAlias(rest)
	return rest, SelectElement{Expr: expr, Alias: alias}, nil
}

func (p *Parser) parseAlias(in buffer.View) (buffer.View, string) {
	rest, err := p.multispace1(in)
	if err != nil {
		return in, ""
	}
	if rest, err = p.keyword(rest, AS); err != nil {
		return in, ""
	}
	if rest, err = p.multispace1(rest); err != nil {
		return in, ""
	}
	rest, alias, err := p.identifier(rest)
	if err != nil {
		return in, ""
	}
	return rest, alias
}

// parseCommaSep parses "<ws*> , <ws*>".
func (p *Parser) parseCommaSep(in buffer.View) (buffer.View, error) {
	rest, err := p.tag(multispace0(in), COMMA)
	if err != nil {
		return in, err
	}
	return multispace0(rest), nil
}

// parseFrom parses "<ws+> FROM <ws+> <ident>".
func (p *Parser) parseFrom(in buffer.View) (buffer.View, []string, error) {
	rest, err := p.multispace1(in)
	if err != nil {
		return in, nil, err
	}
	if rest, err = p.keyword(rest, FROM); err != nil {
		return in, nil, err
	}
	if rest, err = p.multispace1(rest); err != nil {
		return in, nil, err
	}
	rest, table, err := p.identifier(rest)
	if err != nil {
		return in, nil, err
	}
	return rest, []string{table}, nil
}

// parseWhere parses an optional "<ws+> WHERE <ws+> <predicates>" where
// predicates are one or more comparisons joined by "<ws+> AND <ws+>".
// A trailing AND that is not followed by a comparison is left unconsumed.
func (p *Parser) parseWhere(in buffer.View) (buffer.View, []RelationElement, error) {
	rest, err := p.multispace1(in)
	if err != nil {
		return in, nil, nil
	}
	if rest, err = p.keyword(rest, WHERE); err != nil {
		return in, nil, nil
	}
	if rest, err = p.multispace1(rest); err != nil {
		return in, nil, nil
	}

	rest, cmp, err := p.parseComparison(rest)
	if err == errNoMatch {
		return in, nil, nil
	}
	if err != nil {
		return in, nil, err
	}
	where := []RelationElement{cmp}

	for {
		next, err := p.parseAndComparison(rest)
		if err == errNoMatch {
			return rest, where, nil
		}
		if err != nil {
			return in, nil, err
		}
		rest = next.rest
		where = append(where, next.cmp)
	}
}

type andComparison struct {
	rest buffer.View
	cmp  *Comparison
}

// parseAndComparison parses "<ws+> AND <ws+> <comparison>".
func (p *Parser) parseAndComparison(in buffer.View) (andComparison, error) {
	rest, err := p.multispace1(in)
	if err != nil {
		return andComparison{}, err
	}
	if rest, err = p.keyword(rest, AND); err != nil {
		return andComparison{}, err
	}
	if rest, err = p.multispace1(rest); err != nil {
		return andComparison{}, err
	}
	rest, cmp, err := p.parseComparison(rest)
	if err != nil {
		return andComparison{}, err
	}
	return andComparison{rest: rest, cmp: cmp}, nil
}

// parseOrderBy parses an optional
// "<ws+> ORDER <ws+> BY <ws+> <ident> [<ws+> ASC|DESC]". Ordering defaults to
// Asc.
func (p *Parser) parseOrderBy(in buffer.View) (buffer.View, *OrderBy, error) {
	rest, err := p.multispace1(in)
	if err != nil {
		return in, nil, nil
	}
	for _, kw := range []Keyword{ORDER, BY} {
		if rest, err = p.keyword(rest, kw); err != nil {
			return in, nil, nil
		}
		if rest, err = p.multispace1(rest); err != nil {
			return in, nil, nil
		}
	}
	rest, name, err := p.identifier(rest)
	if err != nil {
		return in, nil, nil
	}

	rest, ordering := p.parseOrdering(rest)
	return rest, &OrderBy{Name: name, Ordering: ordering}, nil
}

func (p *Parser) parseOrdering(in buffer.View) (buffer.View, Ordering) {
	rest, err := p.multispace1(in)
	if err != nil {
		return in, Asc
	}
	if r, err := p.keyword(rest, ASC); err == nil {
		return r, Asc
	}
	if r, err := p.keyword(rest, DESC); err == nil {
		return r, Desc
	}
	return in, Asc
}

// parseLimit parses an optional "<ws+> LIMIT <ws+> <unsigned>". An absent
// clause yields nil, not a default.
func (p *Parser) parseLimit(in buffer.View) (buffer.View, *uint64, error) {
	rest, err := p.multispace1(in)
	if err != nil {
		return in, nil, nil
	}
	if rest, err = p.keyword(rest, LIMIT); err != nil {
		return in, nil, nil
	}
	if rest, err = p.multispace1(rest); err != nil {
		return in, nil, nil
	}
	rest, n, err := p.unsignedLiteral(rest)
	if err == errNoMatch {
		return in, nil, nil
	}
	if err != nil {
		return in, nil, err
	}
	return rest, &n, nil
}

// parseAllowFiltering parses an optional "<ws+> ALLOW FILTERING".
func (p *Parser) parseAllowFiltering(in buffer.View) (buffer.View, bool) {
	rest, err := p.multispace1(in)
	if err != nil {
		return in, false
	}
	if rest, err = p.keyword(rest, ALLOW_FILTERING); err != nil {
		return in, false
	}
	return rest, true
}
