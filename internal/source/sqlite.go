package source

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SQLiteSource reads records from a table in a SQLite database file. The
// engine ATTACHes the file instead of reading it when it can; see DBPath.
type SQLiteSource struct {
	reader
	name  string
	path  string
	table string
}

// NewSQLiteSource creates a source that reads all rows from a SQLite table.
// The table defaults to name.
func NewSQLiteSource(name, path, table string) (*SQLiteSource, error) {
	if table == "" {
		table = name
	}
	return &SQLiteSource{
		name:  name,
		path:  path,
		table: table,
	}, nil
}

func (s *SQLiteSource) Type() SourceType { return Static }
func (s *SQLiteSource) Name() string     { return s.name }

// DBPath returns the filesystem path to the SQLite database file.
func (s *SQLiteSource) DBPath() string { return s.path }

// TableName returns the table name within the SQLite database.
func (s *SQLiteSource) TableName() string { return s.table }

func (s *SQLiteSource) Records(ctx context.Context) (<-chan Record, error) {
	return s.records(ctx, s.read), nil
}

func (s *SQLiteSource) Close() error {
	return nil
}

func (s *SQLiteSource) read(ctx context.Context, emit func(Record) bool) error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return errors.Wrapf(err, "source %s: open %s", s.name, s.path)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(s.table))
	if err != nil {
		return errors.Wrapf(err, "source %s: query %s", s.name, s.table)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return errors.Wrapf(err, "source %s", s.name)
	}

	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return errors.Wrapf(err, "source %s: scan", s.name)
		}

		rec := make(Record, len(cols))
		for i, col := range cols {
			rec[col] = vals[i]
		}
		if !emit(rec) {
			return nil
		}
	}
	return errors.Wrapf(rows.Err(), "source %s", s.name)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
