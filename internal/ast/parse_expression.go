package ast

import (
	"github.com/kevin-cantwell/cqlparser/internal/buffer"
)

// parseExpr tries, in order: *, a constant, then a name. The first
// alternative that matches wins; its choice is never revisited, so "123abc"
// is the constant 123 followed by "abc".
func (p *Parser) parseExpr(in buffer.View) (buffer.View, Expr, error) {
	// Report a failure here as one "expression" rather than every alternative.
	m := p.save()

	if rest, err := p.tag(in, STAR); err == nil {
		return rest, Wildcard{}, nil
	}

	rest, c, err := p.parseConstant(in)
	if err == nil {
		return rest, c, nil
	}
	if err != errNoMatch {
		return in, nil, err
	}

	rest, name, err := p.identifier(in)
	if err != nil {
		p.restore(m)
		return in, nil, p.fail(in, "expression")
	}
	return rest, Name(name), nil
}

// parseConstant tries an integer, then a string, then a boolean.
func (p *Parser) parseConstant(in buffer.View) (buffer.View, Constant, error) {
	if rest, n, err := p.integerLiteral(in); err == nil {
		return rest, Decimal(n), nil
	} else if err != errNoMatch {
		return in, nil, err
	}

	if rest, s, err := p.stringLiteral(in); err == nil {
		return rest, Text(s), nil
	} else if err != errNoMatch {
		return in, nil, err
	}

	if rest, b, err := p.boolLiteral(in); err == nil {
		return rest, Bool(b), nil
	}

	return in, nil, errNoMatch
}

// parseOperator matches a comparison operator, longest spelling first.
func (p *Parser) parseOperator(in buffer.View) (buffer.View, ComparisonOperator, error) {
	for _, entry := range operators {
		if in.HasPrefix(entry.str) {
			return in.Skip(len(entry.str)), entry.op, nil
		}
	}
	return in, 0, p.fail(in, "comparison operator")
}

// parseComparison parses "<expr> <ws+> <operator> <ws+> <expr>".
func (p *Parser) parseComparison(in buffer.View) (buffer.View, *Comparison, error) {
	rest, lhs, err := p.parseExpr(in)
	if err != nil {
		return in, nil, err
	}
	if rest, err = p.multispace1(rest); err != nil {
		return in, nil, err
	}
	rest, op, err := p.parseOperator(rest)
	if err != nil {
		return in, nil, err
	}
	if rest, err = p.multispace1(rest); err != nil {
		return in, nil, err
	}
	rest, rhs, err := p.parseExpr(rest)
	if err != nil {
		return in, nil, err
	}
	return rest, &Comparison{LHS: lhs, Op: op, RHS: rhs}, nil
}
