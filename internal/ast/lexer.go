package ast

import (
	"strconv"
	"strings"

	"github.com/kevin-cantwell/cqlparser/internal/buffer"
)

// The lexical layer works directly on buffer views: there is no token stream.
// Each primitive either consumes a prefix of its input and returns the rest,
// or fails without consuming anything.

// multispace0 skips zero or more whitespace bytes.
func multispace0(in buffer.View) buffer.View {
	return in.Skip(in.Span(isWS))
}

// multispace1 skips one or more whitespace bytes.
func (p *Parser) multispace1(in buffer.View) (buffer.View, error) {
	n := in.Span(isWS)
	if n == 0 {
		return in, p.fail(in, "whitespace")
	}
	return in.Skip(n), nil
}

// tag matches sym exactly.
func (p *Parser) tag(in buffer.View, sym string) (buffer.View, error) {
	if !in.HasPrefix(sym) {
		return in, p.fail(in, strconv.Quote(sym))
	}
	return in.Skip(len(sym)), nil
}

// keyword matches kw ignoring ASCII case. There is no word-boundary check:
// the grammar decides what may follow.
func (p *Parser) keyword(in buffer.View, kw Keyword) (buffer.View, error) {
	if !in.HasPrefixFold(string(kw)) {
		return in, p.fail(in, strconv.Quote(string(kw)))
	}
	return in.Skip(len(kw)), nil
}

// identifier matches a maximal run of [A-Za-z0-9_]. The returned name shares
// storage with the input.
func (p *Parser) identifier(in buffer.View) (buffer.View, string, error) {
	n := in.Span(isIdent)
	if n == 0 {
		return in, "", p.fail(in, "identifier")
	}
	name, rest := in.Split(n)
	return rest, name.String(), nil
}

func (p *Parser) digits(in buffer.View) (buffer.View, buffer.View, error) {
	n := in.Span(isDigit)
	if n == 0 {
		return in, buffer.View{}, p.fail(in, "digit")
	}
	d, rest := in.Split(n)
	return rest, d, nil
}

// integerLiteral matches an optional '-' followed by digits. Values outside
// the int64 range are a fatal error.
func (p *Parser) integerLiteral(in buffer.View) (buffer.View, int64, error) {
	start := in
	if c, ok := in.Peek(); ok && c == MINUS {
		in = in.Skip(1)
	}
	rest, _, err := p.digits(in)
	if err != nil {
		return start, 0, err
	}
	lit := start.Take(start.Offset(rest))
	n, perr := strconv.ParseInt(lit.String(), 10, 64)
	if perr != nil {
		return start, 0, p.fatal(start, "integer in int64 range")
	}
	return rest, n, nil
}

// unsignedLiteral matches digits. Values outside the uint64 range are a fatal
// error.
func (p *Parser) unsignedLiteral(in buffer.View) (buffer.View, uint64, error) {
	rest, d, err := p.digits(in)
	if err != nil {
		return in, 0, err
	}
	n, perr := strconv.ParseUint(d.String(), 10, 64)
	if perr != nil {
		return in, 0, p.fatal(in, "unsigned integer in uint64 range")
	}
	return rest, n, nil
}

// stringLiteral matches a single-quoted string in which '' stands for one
// quote. A missing closing quote is a fatal error. Literals without escapes
// share storage with the input.
func (p *Parser) stringLiteral(in buffer.View) (buffer.View, string, error) {
	if c, ok := in.Peek(); !ok || c != QUOTE {
		return in, "", p.fail(in, "string literal")
	}
	body := in.Skip(1)

	var (
		sb      strings.Builder
		escaped bool
	)
	for {
		i := body.IndexByte(QUOTE)
		if i < 0 {
			return in, "", p.fatal(in, "closing quote")
		}
		chunk, rest := body.Split(i)
		if rest.HasPrefix("''") {
			// doubled quote: keep one and carry on
			escaped = true
			sb.WriteString(chunk.String())
			sb.WriteByte(QUOTE)
			body = rest.Skip(2)
			continue
		}
		rest = rest.Skip(1)
		if !escaped {
			return rest, chunk.String(), nil
		}
		sb.WriteString(chunk.String())
		return rest, sb.String(), nil
	}
}

// boolLiteral matches TRUE or FALSE ignoring case.
func (p *Parser) boolLiteral(in buffer.View) (buffer.View, bool, error) {
	if rest, err := p.keyword(in, TRUE); err == nil {
		return rest, true, nil
	}
	if rest, err := p.keyword(in, FALSE); err == nil {
		return rest, false, nil
	}
	return in, false, errNoMatch
}

func isWS(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isIdent(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_'
}
