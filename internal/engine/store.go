package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/kevin-cantwell/cqlparser/internal/source"
)

// store is the private in-memory SQLite database a query runs against.
// ATTACH is per connection, so the pool is held to a single connection and
// every statement shares it.
type store struct {
	db   *sql.DB
	name string
	log  *slog.Logger
}

func openStore(ctx context.Context, log *slog.Logger) (*store, error) {
	name := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := sql.Open("sqlite", name)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "open sqlite")
	}
	return &store{db: db, name: name, log: log}, nil
}

// attach makes a SQLite file available under schema.
func (s *store) attach(ctx context.Context, schema, path string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		"ATTACH DATABASE %s AS %s",
		quoteLiteral(path), quoteIdent(schema)))
	if err != nil {
		return errors.Wrapf(err, "attach %s", path)
	}
	s.log.Debug("attached database", "schema", schema, "path", path)
	return nil
}

// hasTable reports whether table exists in the main schema.
func (s *store) hasTable(ctx context.Context, table string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n)
	if err != nil {
		return false, errors.Wrapf(err, "look up table %s", table)
	}
	return n > 0, nil
}

// insert inserts a record into a table, creating the table and any missing
// columns as needed.
func (s *store) insert(ctx context.Context, table string, rec source.Record) error {
	if len(rec) == 0 {
		return nil
	}

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cols := make([]string, len(keys))
	vals := make([]interface{}, len(keys))
	placeholders := make([]string, len(keys))
	for i, k := range keys {
		cols[i] = quoteIdent(k)
		vals[i] = sqlValue(rec[k])
		placeholders[i] = "?"
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "))

	// fast path: the table already has every column
	if _, err := s.db.ExecContext(ctx, insertSQL, vals...); err == nil {
		return nil
	}

	colDefs := make([]string, len(cols))
	for i, col := range cols {
		colDefs[i] = col + " " + sqliteType(vals[i])
	}
	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(table),
		strings.Join(colDefs, ", "))
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return errors.Wrapf(err, "create table %s", table)
	}

	if _, err := s.db.ExecContext(ctx, insertSQL, vals...); err == nil {
		return nil
	}

	for i, col := range cols {
		alterSQL := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
			quoteIdent(table), col, sqliteType(vals[i]))
		if _, err := s.db.ExecContext(ctx, alterSQL); err == nil {
			s.log.Debug("added column", "table", table, "column", keys[i])
		}
	}
	_, err := s.db.ExecContext(ctx, insertSQL, vals...)
	return errors.Wrapf(err, "insert into %s", table)
}

func (s *store) Close() error {
	return s.db.Close()
}

// sqlValue serializes nested objects and arrays to JSON text.
func sqlValue(v interface{}) interface{} {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	default:
		return v
	}
}

func sqliteType(v interface{}) string {
	switch v.(type) {
	case int, int32, int64, bool:
		return "INTEGER"
	case float64, float32:
		return "REAL"
	default:
		return "TEXT"
	}
}
