package ast

// Keyword is a reserved word. Keywords match case-insensitively against their
// spelling.
type Keyword string

const (
	SELECT   Keyword = "SELECT"
	DISTINCT Keyword = "DISTINCT"
	JSON     Keyword = "JSON"
	AS       Keyword = "AS"
	FROM     Keyword = "FROM"
	WHERE    Keyword = "WHERE"
	AND      Keyword = "AND"
	ORDER    Keyword = "ORDER"
	BY       Keyword = "BY"
	ASC      Keyword = "ASC"
	DESC     Keyword = "DESC"
	LIMIT    Keyword = "LIMIT"
	INSERT   Keyword = "INSERT"
	TRUE     Keyword = "TRUE"
	FALSE    Keyword = "FALSE"

	// ALLOW_FILTERING is a single phrase with exactly one embedded space.
	ALLOW_FILTERING Keyword = "ALLOW FILTERING"
)

func (k Keyword) String() string { return string(k) }

// Symbols
const (
	STAR  = "*"
	COMMA = ","
	QUOTE = '\''
	MINUS = '-'
)

type operatorEntry struct {
	op  ComparisonOperator
	str string
}

// Ordered longest-first so multi-char operators match before single-char prefixes.
var operators = []operatorEntry{
	{GreaterThanOrEqualTo, ">="},
	{LessThanOrEqualTo, "<="},
	{Equals, "="},
	{GreaterThan, ">"},
	{LessThan, "<"},
}
