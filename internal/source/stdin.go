package source

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"github.com/kevin-cantwell/cqlparser/internal/logging"
)

const maxLine = 1024 * 1024

// StdinSource reads JSON lines from stdin, or any other reader. It is a
// streaming source: records keep arriving until the input ends.
type StdinSource struct {
	reader
	name string
	in   io.Reader
	log  *slog.Logger
}

func NewStdinSource(name string, log *slog.Logger) *StdinSource {
	return NewReaderSource(name, os.Stdin, log)
}

// NewReaderSource reads JSON lines from in.
func NewReaderSource(name string, in io.Reader, log *slog.Logger) *StdinSource {
	if name == "" {
		name = "stdin"
	}
	if log == nil {
		log = logging.GetLogger()
	}
	return &StdinSource{
		reader: reader{shared: true},
		name:   name,
		in:     in,
		log:    log.With("source", name),
	}
}

func (s *StdinSource) Type() SourceType { return Streaming }
func (s *StdinSource) Name() string     { return s.name }

func (s *StdinSource) Records(ctx context.Context) (<-chan Record, error) {
	return s.records(ctx, s.read), nil
}

func (s *StdinSource) Close() error {
	if c, ok := s.in.(io.Closer); ok && s.in != os.Stdin {
		return c.Close()
	}
	return nil
}

func (s *StdinSource) read(ctx context.Context, emit func(Record) bool) error {
	// Scan blocks until a line arrives, so it runs on its own and ctx is
	// watched here.
	var (
		lines   = make(chan []byte)
		scanErr error
	)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		scanner.Buffer(make([]byte, 0, maxLine), maxLine)
		for scanner.Scan() {
			select {
			case lines <- append([]byte(nil), scanner.Bytes()...):
			case <-ctx.Done():
				return
			}
		}
		scanErr = scanner.Err()
	}()

	line := 0
	for {
		select {
		case <-ctx.Done():
			s.unblock()
			return nil
		case data, ok := <-lines:
			if !ok {
				return errors.Wrapf(scanErr, "source %s", s.name)
			}
			line++
			if len(data) == 0 {
				continue
			}
			var rec Record
			if err := json.Unmarshal(data, &rec); err != nil {
				s.log.Warn("skipping malformed line", "line", line, "error", err)
				continue
			}
			if !emit(rec) {
				s.unblock()
				return nil
			}
		}
	}
}

// unblock closes the input so a pending read returns. os.Stdin is left open.
func (s *StdinSource) unblock() {
	if err := s.Close(); err != nil {
		s.log.Debug("close input", "error", err)
	}
}
