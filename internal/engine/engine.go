package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/kevin-cantwell/cqlparser/internal/ast"
	"github.com/kevin-cantwell/cqlparser/internal/logging"
	"github.com/kevin-cantwell/cqlparser/internal/output"
	"github.com/kevin-cantwell/cqlparser/internal/source"
)

var (
	// ErrUnsupportedStatement is returned for statements the engine cannot
	// run, such as INSERT.
	ErrUnsupportedStatement = errors.New("unsupported statement")
	// ErrUnknownTable is returned when FROM names a table with no source.
	ErrUnknownTable = errors.New("unknown table")
)

// JSONColumn is the single column a SELECT JSON query returns.
const JSONColumn = "[json]"

// Engine runs parsed statements against local data sources by translating
// them to SQLite.
type Engine struct {
	mu      sync.RWMutex
	sources map[string]source.Source
	output  output.Writer
	log     *slog.Logger
}

type Option func(*Engine)

// WithLogger sets the engine's logger. The default is the global logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates a new Engine writing results to out.
func New(out output.Writer, opts ...Option) *Engine {
	e := &Engine{
		sources: make(map[string]source.Source),
		output:  out,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logging.GetLogger()
	}
	return e
}

// AddSource adds a data source mapped to a table name. A later source with
// the same name replaces the earlier one.
func (e *Engine) AddSource(s source.Source) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sources[s.Name()] = s
}

// Tables lists the registered table names in order.
func (e *Engine) Tables() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.sources))
	for name := range e.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs a parsed statement once.
func (e *Engine) Execute(ctx context.Context, stmt ast.Statement) error {
	sel, err := selectOf(stmt)
	if err != nil {
		return err
	}

	plans, err := e.plan(sel)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, e.log)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := e.attach(ctx, st, plans); err != nil {
		return err
	}
	if err := e.load(ctx, st, plans, source.Static, source.Streaming); err != nil {
		return err
	}
	return e.run(ctx, st, sel, plans)
}

func selectOf(stmt ast.Statement) (*ast.Select, error) {
	switch s := stmt.(type) {
	case *ast.Select:
		return s, nil
	case *ast.Insert:
		return nil, errors.Wrap(ErrUnsupportedStatement, "INSERT")
	default:
		return nil, errors.Wrapf(ErrUnsupportedStatement, "%T", stmt)
	}
}

func (e *Engine) plan(sel *ast.Select) (map[string]*TablePlan, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Plan(sel, e.sources)
}

func (e *Engine) attach(ctx context.Context, st *store, plans map[string]*TablePlan) error {
	for _, p := range plans {
		if p.Access != AccessAttached {
			continue
		}
		if err := st.attach(ctx, p.Schema, p.AttachPath); err != nil {
			return err
		}
	}
	return nil
}

// load drains every loaded source of the given types concurrently and then
// inserts their records.
func (e *Engine) load(ctx context.Context, st *store, plans map[string]*TablePlan, types ...source.SourceType) error {
	var (
		mu      sync.Mutex
		records = make(map[string][]source.Record)
	)

	g, gctx := errgroup.WithContext(ctx)
	for name, p := range plans {
		if p.Access != AccessLoaded || !hasType(p.Source, types) {
			continue
		}
		name, p := name, p
		g.Go(func() error {
			recs, err := collect(gctx, p.Source)
			if err != nil {
				return err
			}
			mu.Lock()
			records[name] = recs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for name, recs := range records {
		for _, rec := range recs {
			if err := st.insert(ctx, name, rec); err != nil {
				return err
			}
		}
		e.log.Debug("loaded table", "table", name, "records", len(recs))
	}
	return nil
}

func hasType(src source.Source, types []source.SourceType) bool {
	for _, t := range types {
		if src.Type() == t {
			return true
		}
	}
	return false
}

func collect(ctx context.Context, src source.Source) ([]source.Record, error) {
	ch, err := src.Records(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "source %s", src.Name())
	}
	var recs []source.Record
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case rec, ok := <-ch:
			if !ok {
				if err := src.Err(); err != nil {
					return nil, err
				}
				return recs, nil
			}
			recs = append(recs, rec)
		}
	}
}

// run executes sel against the store and writes one result set.
func (e *Engine) run(ctx context.Context, st *store, sel *ast.Select, plans map[string]*TablePlan) error {
	for name, p := range plans {
		if p.Access != AccessLoaded {
			continue
		}
		ok, err := st.hasTable(ctx, name)
		if err != nil {
			return err
		}
		if !ok {
			// a source without records has no columns to create a table from
			e.log.Debug("table has no records", "table", name)
			return e.output.Flush()
		}
	}

	sqlStr := ToSQL(sel, plans)
	if sel.AllowFiltering {
		e.log.Debug("ALLOW FILTERING has no effect")
	}
	e.log.Debug("executing", "cql", sel.String(), "sql", sqlStr)

	rows, err := st.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return errors.Wrapf(err, "query %s", sqlStr)
	}
	defer rows.Close()

	if err := e.writeRows(rows, sel.JSON); err != nil {
		return err
	}
	return e.output.Flush()
}

func (e *Engine) writeRows(rows *sql.Rows, asJSON bool) error {
	cols, err := rows.Columns()
	if err != nil {
		return errors.Wrap(err, "columns")
	}

	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return errors.Wrap(err, "scan")
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}

		if !asJSON {
			if err := e.output.WriteRow(cols, vals); err != nil {
				return err
			}
			continue
		}

		rec := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			rec[col] = vals[i]
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return errors.Wrap(err, "encode json row")
		}
		if err := e.output.WriteRow([]string{JSONColumn}, []interface{}{string(b)}); err != nil {
			return err
		}
	}
	return errors.Wrap(rows.Err(), "rows")
}
