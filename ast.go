package cqlparser

import "github.com/kevin-cantwell/cqlparser/internal/ast"

type (
	Statement       = ast.Statement
	Select          = ast.Select
	Insert          = ast.Insert
	SelectElement   = ast.SelectElement
	Expr            = ast.Expr
	Wildcard        = ast.Wildcard
	Name            = ast.Name
	Constant        = ast.Constant
	Decimal         = ast.Decimal
	Text            = ast.Text
	Bool            = ast.Bool
	RelationElement = ast.RelationElement
	Comparison      = ast.Comparison

	ComparisonOperator = ast.ComparisonOperator
	OrderBy            = ast.OrderBy
	Ordering           = ast.Ordering

	SyntaxError = ast.SyntaxError
)

const (
	Equals               = ast.Equals
	GreaterThan          = ast.GreaterThan
	GreaterThanOrEqualTo = ast.GreaterThanOrEqualTo
	LessThan             = ast.LessThan
	LessThanOrEqualTo    = ast.LessThanOrEqualTo

	Asc  = ast.Asc
	Desc = ast.Desc
)
