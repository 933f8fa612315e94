package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/kevin-cantwell/cqlparser/internal/ast"
	"github.com/kevin-cantwell/cqlparser/internal/source"
)

// TableAccess classifies how a FROM table reaches the query database.
type TableAccess int

const (
	AccessLoaded   TableAccess = iota // records copied into the main schema
	AccessAttached                    // ATTACH original SQLite file directly
)

// TablePlan describes how a single FROM table is made available.
type TablePlan struct {
	Access     TableAccess
	Source     source.Source
	Schema     string // "" for loaded tables, "_src_<name>" for attached ones
	SQLTable   string // table name inside Schema
	AttachPath string // file path (for AccessAttached)
}

// attachable is implemented by sources backed by a SQLite file.
type attachable interface {
	DBPath() string
	TableName() string
}

// Plan resolves every FROM table of sel against sources.
func Plan(sel *ast.Select, sources map[string]source.Source) (map[string]*TablePlan, error) {
	plan := make(map[string]*TablePlan, len(sel.From))
	for _, name := range sel.From {
		src, ok := sources[name]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownTable, "%q", name)
		}

		if att, ok := src.(attachable); ok {
			plan[name] = &TablePlan{
				Access:     AccessAttached,
				Source:     src,
				Schema:     "_src_" + name,
				SQLTable:   att.TableName(),
				AttachPath: att.DBPath(),
			}
			continue
		}

		plan[name] = &TablePlan{
			Access:   AccessLoaded,
			Source:   src,
			SQLTable: name,
		}
	}
	return plan, nil
}

// ToSQL converts a SELECT into a SQLite SQL string. plans maps a FROM table to
// where it lives; tables missing from plans are referenced by name.
func ToSQL(sel *ast.Select, plans map[string]*TablePlan) string {
	var b strings.Builder

	b.WriteString("SELECT ")
	if sel.Distinct {
		b.WriteString("DISTINCT ")
	}

	for i, el := range sel.Select {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(exprToSQL(el.Expr))
		if el.Alias != "" {
			b.WriteString(" AS ")
			b.WriteString(quoteIdent(el.Alias))
		}
	}

	if len(sel.From) > 0 {
		b.WriteString(" FROM ")
		for i, name := range sel.From {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(tableToSQL(name, plans))
		}
	}

	for i, rel := range sel.Where {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(relationToSQL(rel))
	}

	if sel.OrderBy != nil {
		b.WriteString(" ORDER BY ")
		b.WriteString(quoteIdent(sel.OrderBy.Name))
		if sel.OrderBy.Ordering == ast.Desc {
			b.WriteString(" DESC")
		}
	}

	if sel.Limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(limitToSQL(*sel.Limit))
	}

	return b.String()
}

func tableToSQL(name string, plans map[string]*TablePlan) string {
	p, ok := plans[name]
	if !ok || p.Schema == "" {
		return quoteIdent(name)
	}
	// keep the CQL name visible to the rest of the query
	return quoteIdent(p.Schema) + "." + quoteIdent(p.SQLTable) + " AS " + quoteIdent(name)
}

func relationToSQL(rel ast.RelationElement) string {
	switch r := rel.(type) {
	case *ast.Comparison:
		return "(" + exprToSQL(r.LHS) + " " + r.Op.String() + " " + exprToSQL(r.RHS) + ")"
	}
	return "?"
}

func exprToSQL(expr ast.Expr) string {
	switch e := expr.(type) {
	case ast.Wildcard:
		return "*"
	case ast.Name:
		return quoteIdent(string(e))
	case ast.Decimal:
		return strconv.FormatInt(int64(e), 10)
	case ast.Text:
		return quoteLiteral(string(e))
	case ast.Bool:
		if e {
			return "1"
		}
		return "0"
	}
	return "?"
}

// limitToSQL maps a CQL limit onto SQLite's signed LIMIT, where -1 means
// unbounded.
func limitToSQL(n uint64) string {
	if n > math.MaxInt64 {
		return "-1"
	}
	return strconv.FormatUint(n, 10)
}

func quoteIdent(s string) string {
	if s == "*" {
		return "*"
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
