package source

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func drain(t *testing.T, s Source) []Record {
	t.Helper()
	ch, err := s.Records(context.Background())
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	var out []Record
	for rec := range ch {
		out = append(out, rec)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("source error: %v", err)
	}
	return out
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri    string
		scheme string
		path   string
		table  string
		err    error
	}{
		{uri: "stdin", scheme: "stdin", path: "stdin"},
		{uri: "-", scheme: "stdin", path: "-"},
		{uri: "file://data/users.csv", scheme: "file", path: "data/users.csv"},
		{uri: "users.jsonl", scheme: "file", path: "users.jsonl"},
		{uri: "sqlite://app.db#accounts", scheme: "sqlite", path: "app.db", table: "accounts"},
		{uri: "sqlite://app.db", scheme: "sqlite", path: "app.db"},
		{uri: "mysql://localhost/db", err: ErrUnsupportedScheme},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			cfg, err := ParseURI("users", tt.uri)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Scheme != tt.scheme || cfg.URI != tt.path || cfg.Table != tt.table {
				t.Errorf("unexpected config %+v", cfg)
			}
		})
	}
}

func TestParseFlag(t *testing.T) {
	cfg, err := ParseFlag("events=file://events.jsonl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "events" || cfg.URI != "events.jsonl" {
		t.Errorf("unexpected config %+v", cfg)
	}

	for _, bad := range []string{"events", "=x.csv"} {
		if _, err := ParseFlag(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestNewUnsupportedScheme(t *testing.T) {
	_, err := New(&Config{Name: "x", Scheme: "kafka"}, discard)
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("expected ErrUnsupportedScheme, got %v", err)
	}
	if _, err := NewFileSource("x", "x.parquet"); err == nil {
		t.Error("expected an error for an unknown extension")
	}
}

func TestFileSourceCSV(t *testing.T) {
	path := writeFile(t, "users.csv", "id,name,score,active\n1,alice,9.5,true\n2,bob,7,false\n")
	src, err := NewFileSource("users", path)
	if err != nil {
		t.Fatal(err)
	}

	got := drain(t, src)
	want := []Record{
		{"id": int64(1), "name": "alice", "score": 9.5, "active": true},
		{"id": int64(2), "name": "bob", "score": int64(7), "active": false},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if src.Type() != Static {
		t.Errorf("expected a static source")
	}
}

func TestFileSourceJSON(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{name: "lines", file: "e.jsonl", data: "{\"a\":1}\n\n{\"a\":2}\n"},
		{name: "array", file: "e.json", data: "  [{\"a\":1}, {\"a\":2}]"},
		{name: "concatenated", file: "e.json", data: "{\"a\":1}{\"a\":2}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewFileSource("e", writeFile(t, tt.file, tt.data))
			if err != nil {
				t.Fatal(err)
			}
			got := drain(t, src)
			want := []Record{{"a": float64(1)}, {"a": float64(2)}}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("expected %v, got %v", want, got)
			}
		})
	}
}

func TestFileSourceRereads(t *testing.T) {
	tests := []struct {
		file string
		data string
	}{
		{file: "u.csv", data: "id\n1\n2\n3\n"},
		{file: "u.jsonl", data: "{\"id\":1}\n{\"id\":2}\n{\"id\":3}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			src, err := NewFileSource("u", writeFile(t, tt.file, tt.data))
			if err != nil {
				t.Fatal(err)
			}
			first, second := drain(t, src), drain(t, src)
			if len(first) != 3 || !reflect.DeepEqual(first, second) {
				t.Errorf("expected the same 3 records twice, got %v then %v", first, second)
			}
		})
	}
}

func TestFileSourceErrors(t *testing.T) {
	src, err := NewFileSource("missing", filepath.Join(t.TempDir(), "missing.csv"))
	if err != nil {
		t.Fatal(err)
	}
	ch, _ := src.Records(context.Background())
	for range ch {
	}
	if !errors.Is(src.Err(), os.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", src.Err())
	}

	bad, _ := NewFileSource("bad", writeFile(t, "bad.jsonl", "{\"a\":1}\n{oops\n"))
	ch, _ = bad.Records(context.Background())
	n := 0
	for range ch {
		n++
	}
	if n != 1 || bad.Err() == nil {
		t.Errorf("expected one record then an error, got %d records, %v", n, bad.Err())
	}
}

func TestReaderSource(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))

	src := NewReaderSource("", strings.NewReader("{\"a\":1}\nnot json\n{\"a\":2}\n"), log)
	if src.Name() != "stdin" || src.Type() != Streaming {
		t.Errorf("unexpected source %s/%s", src.Name(), src.Type())
	}

	got := drain(t, src)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if !strings.Contains(logs.String(), "skipping malformed line") || !strings.Contains(logs.String(), "line=2") {
		t.Errorf("expected a warning for line 2, got %q", logs.String())
	}

	// a stream is read once; later calls get the same channel
	again, _ := src.Records(context.Background())
	if _, ok := <-again; ok {
		t.Error("expected the same, already drained channel")
	}
}

func TestReaderSourceCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	src := NewReaderSource("events", pr, discard)
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := src.Records(ctx)

	go func() {
		for i := 0; i < 200; i++ {
			if _, err := pw.Write([]byte("{\"i\":1}\n")); err != nil {
				return
			}
		}
	}()

	<-ch
	cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				if !errors.Is(src.Err(), context.Canceled) {
					t.Errorf("expected context.Canceled, got %v", src.Err())
				}
				return
			}
		case <-deadline:
			t.Fatal("source did not stop after cancel")
		}
	}
}

func TestReaderSourceCancelIdle(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	src := NewReaderSource("events", pr, discard)
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := src.Records(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("unexpected record from an idle pipe")
		}
		if !errors.Is(src.Err(), context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", src.Err())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("source did not stop after cancel while idle")
	}

	// the input is closed so the writer side is released too
	if _, err := pw.Write([]byte("{}\n")); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("expected io.ErrClosedPipe, got %v", err)
	}
}

func TestSQLiteSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, stmt := range []string{
		`CREATE TABLE accounts (id INTEGER, owner TEXT)`,
		`INSERT INTO accounts VALUES (1, 'alice'), (2, 'bob')`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	src, err := NewSQLiteSource("acct", path, "accounts")
	if err != nil {
		t.Fatal(err)
	}
	if src.DBPath() != path || src.TableName() != "accounts" {
		t.Errorf("unexpected attach info %s %s", src.DBPath(), src.TableName())
	}

	got := drain(t, src)
	want := []Record{
		{"id": int64(1), "owner": "alice"},
		{"id": int64(2), "owner": "bob"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	dflt, _ := NewSQLiteSource("accounts", path, "")
	if dflt.TableName() != "accounts" {
		t.Errorf("expected table to default to the source name")
	}
}
