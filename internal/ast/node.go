package ast

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Statement is a top-level CQL statement: *Select or *Insert.
type Statement interface {
	statementNode()
	String() string
}

// Select represents a full SELECT query.
type Select struct {
	Distinct       bool              `json:"distinct"`
	JSON           bool              `json:"json"`
	Select         []SelectElement   `json:"select"`
	From           []string          `json:"from"`
	Where          []RelationElement `json:"where,omitempty"`
	OrderBy        *OrderBy          `json:"order_by,omitempty"`
	Limit          *uint64           `json:"limit,omitempty"`
	AllowFiltering bool              `json:"allow_filtering"`
}

func (*Select) statementNode() {}

// Insert is a placeholder for INSERT; only the keyword is parsed.
type Insert struct{}

func (*Insert) statementNode() {}

// SelectElement is a single item in the SELECT list. Alias is empty when no
// AS clause was given.
type SelectElement struct {
	Expr  Expr   `json:"expr"`
	Alias string `json:"as,omitempty"`
}

// Expr is a Wildcard, a Name or a Constant.
type Expr interface {
	exprNode()
	String() string
}

// Wildcard is the * expression.
type Wildcard struct{}

func (Wildcard) exprNode() {}

// Name is a column reference. Case is preserved as written.
type Name string

func (Name) exprNode() {}

// Constant is a literal value: Decimal, Text or Bool.
type Constant interface {
	Expr
	constantNode()
}

// Decimal is an integer constant.
type Decimal int64

func (Decimal) exprNode()     {}
func (Decimal) constantNode() {}

// Text is a string constant with '' escapes resolved.
type Text string

func (Text) exprNode()     {}
func (Text) constantNode() {}

// Bool is a boolean constant.
type Bool bool

func (Bool) exprNode()     {}
func (Bool) constantNode() {}

// RelationElement is a single predicate of a WHERE clause. Comparison is the
// only kind so far.
type RelationElement interface {
	relationNode()
	String() string
}

// Comparison represents "lhs op rhs".
type Comparison struct {
	LHS Expr               `json:"lhs"`
	Op  ComparisonOperator `json:"operator"`
	RHS Expr               `json:"rhs"`
}

func (*Comparison) relationNode() {}

type ComparisonOperator int

const (
	Equals ComparisonOperator = iota
	GreaterThan
	GreaterThanOrEqualTo
	LessThan
	LessThanOrEqualTo
)

// OrderBy is a single ORDER BY column.
type OrderBy struct {
	Name     string   `json:"name"`
	Ordering Ordering `json:"ordering"`
}

type Ordering int

const (
	Asc Ordering = iota
	Desc
)

// ------------------------------ Rendering ------------------------------

func (s *Select) String() string {
	var b strings.Builder

	b.WriteString("SELECT ")
	if s.Distinct {
		b.WriteString("DISTINCT ")
	}
	if s.JSON {
		b.WriteString("JSON ")
	}
	for i, el := range s.Select {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(el.String())
	}

	b.WriteString(" FROM ")
	b.WriteString(strings.Join(s.From, ", "))

	for i, rel := range s.Where {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(rel.String())
	}

	if s.OrderBy != nil {
		b.WriteString(" ORDER BY ")
		b.WriteString(s.OrderBy.Name)
		b.WriteString(" ")
		b.WriteString(s.OrderBy.Ordering.String())
	}

	if s.Limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.FormatUint(*s.Limit, 10))
	}

	if s.AllowFiltering {
		b.WriteString(" ")
		b.WriteString(string(ALLOW_FILTERING))
	}

	return b.String()
}

func (*Insert) String() string { return string(INSERT) }

func (el SelectElement) String() string {
	if el.Alias == "" {
		return el.Expr.String()
	}
	return el.Expr.String() + " AS " + el.Alias
}

func (Wildcard) String() string { return "*" }
func (n Name) String() string   { return string(n) }
func (d Decimal) String() string {
	return strconv.FormatInt(int64(d), 10)
}
func (t Text) String() string {
	return "'" + strings.ReplaceAll(string(t), "'", "''") + "'"
}
func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

func (c *Comparison) String() string {
	return c.LHS.String() + " " + c.Op.String() + " " + c.RHS.String()
}

func (op ComparisonOperator) String() string {
	switch op {
	case Equals:
		return "="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqualTo:
		return ">="
	case LessThan:
		return "<"
	case LessThanOrEqualTo:
		return "<="
	default:
		return "?"
	}
}

func (o Ordering) String() string {
	if o == Desc {
		return string(DESC)
	}
	return string(ASC)
}

// ------------------------------ JSON ------------------------------

func (op ComparisonOperator) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

func (o Ordering) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (Wildcard) MarshalJSON() ([]byte, error) {
	return []byte(`{"wildcard":true}`), nil
}

func (n Name) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"name": string(n)})
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]int64{"decimal": int64(d)})
}

func (t Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"string": string(t)})
}

func (b Bool) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]bool{"bool": bool(b)})
}
