package source

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrUnsupportedScheme is returned for a source URI no source can read.
var ErrUnsupportedScheme = errors.New("unsupported source scheme")

// Record is a single row from a source: column names to values.
type Record map[string]interface{}

// SourceType classifies sources as streaming or static.
type SourceType int

const (
	Streaming SourceType = iota
	Static
)

func (t SourceType) String() string {
	if t == Streaming {
		return "streaming"
	}
	return "static"
}

// Source reads records from a data source.
type Source interface {
	// Type returns whether this is a streaming or static source.
	Type() SourceType
	// Name returns the table name for this source.
	Name() string
	// Records starts reading and returns a channel of records. The channel
	// closes when the source is exhausted, fails, or ctx is done. Static
	// sources start over on every call; a streaming source returns the same
	// channel each time.
	Records(ctx context.Context) (<-chan Record, error)
	// Err reports why the records channel closed early, if it did. It is only
	// meaningful after the channel is closed.
	Err() error
	// Close cleans up resources.
	Close() error
}

// Config describes a source from a -source flag or the config file.
type Config struct {
	Name   string
	URI    string
	Scheme string
	// Table is the table inside a sqlite database.
	Table string
}

// ParseURI parses a source URI: "stdin", "file://path.csv",
// "sqlite://path.db#table" or a bare file path.
func ParseURI(name, uri string) (*Config, error) {
	switch {
	case uri == "stdin" || uri == "" || uri == "-":
		return &Config{Name: name, URI: uri, Scheme: "stdin"}, nil
	case strings.HasPrefix(uri, "file://"):
		return &Config{Name: name, URI: strings.TrimPrefix(uri, "file://"), Scheme: "file"}, nil
	case strings.HasPrefix(uri, "sqlite://"):
		path, table, _ := strings.Cut(strings.TrimPrefix(uri, "sqlite://"), "#")
		if path == "" {
			return nil, errors.Errorf("source %s: sqlite uri %q has no path", name, uri)
		}
		return &Config{Name: name, URI: path, Scheme: "sqlite", Table: table}, nil
	case strings.Contains(uri, "://"):
		scheme, _, _ := strings.Cut(uri, "://")
		return nil, errors.Wrapf(ErrUnsupportedScheme, "source %s: %s", name, scheme)
	}
	return &Config{Name: name, URI: uri, Scheme: "file"}, nil
}

// ParseFlag parses a "name=uri" flag value.
func ParseFlag(v string) (*Config, error) {
	name, uri, ok := strings.Cut(v, "=")
	if !ok || name == "" {
		return nil, errors.Errorf("source %q: expected name=uri", v)
	}
	return ParseURI(name, uri)
}

// New creates a source from a config.
func New(cfg *Config, log *slog.Logger) (Source, error) {
	switch cfg.Scheme {
	case "stdin":
		return NewStdinSource(cfg.Name, log), nil
	case "file":
		return NewFileSource(cfg.Name, cfg.URI)
	case "sqlite":
		return NewSQLiteSource(cfg.Name, cfg.URI, cfg.Table)
	default:
		return nil, errors.Wrapf(ErrUnsupportedScheme, "source %s: %s", cfg.Name, cfg.Scheme)
	}
}

// reader carries the state every source shares: the channel of the current
// read and the error that ended it. A shared reader starts one read and hands
// its channel to every caller; otherwise every call starts a fresh read.
type reader struct {
	shared bool

	mu  sync.Mutex
	cur *readRun
}

type readRun struct {
	ch   chan Record
	err  error
	done chan struct{}
}

// records runs read in a goroutine and returns its channel. emit reports
// false once ctx is done; read should then return.
func (r *reader) records(ctx context.Context, read func(ctx context.Context, emit func(Record) bool) error) <-chan Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shared && r.cur != nil {
		return r.cur.ch
	}
	r.cur = startRead(ctx, read)
	return r.cur.ch
}

func startRead(ctx context.Context, read func(ctx context.Context, emit func(Record) bool) error) *readRun {
	run := &readRun{
		ch:   make(chan Record, 64),
		done: make(chan struct{}),
	}
	go func() {
		err := read(ctx, func(rec Record) bool {
			select {
			case run.ch <- rec:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if err == nil {
			err = ctx.Err()
		}
		// err must be visible before a consumer sees the channel close.
		run.err = err
		close(run.done)
		close(run.ch)
	}()
	return run
}

// Err reports why the most recent read ended early.
func (r *reader) Err() error {
	r.mu.Lock()
	run := r.cur
	r.mu.Unlock()
	if run == nil {
		return nil
	}
	select {
	case <-run.done:
		return run.err
	default:
		return nil
	}
}
