package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FileSource reads records from a CSV, JSON or JSON-lines file.
type FileSource struct {
	reader
	name string
	path string
	ext  string
}

func NewFileSource(name, path string) (*FileSource, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".json" && ext != ".jsonl" {
		return nil, errors.Errorf("source %s: unsupported file type %q (use .csv, .json, or .jsonl)", name, ext)
	}
	return &FileSource{name: name, path: path, ext: ext}, nil
}

func (s *FileSource) Type() SourceType { return Static }
func (s *FileSource) Name() string     { return s.name }

func (s *FileSource) Records(ctx context.Context) (<-chan Record, error) {
	return s.records(ctx, s.read), nil
}

func (s *FileSource) Close() error {
	return nil
}

func (s *FileSource) read(ctx context.Context, emit func(Record) bool) error {
	f, err := os.Open(s.path)
	if err != nil {
		return errors.Wrapf(err, "source %s", s.name)
	}
	defer f.Close()

	switch s.ext {
	case ".csv":
		err = readCSV(f, emit)
	default:
		err = readJSONLines(f, emit)
	}
	return errors.Wrapf(err, "source %s: %s", s.name, s.path)
}

func readCSV(r io.Reader, emit func(Record) bool) error {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = inferType(row[i])
			}
		}
		if !emit(rec) {
			return nil
		}
	}
}

// readJSONLines reads a stream of JSON objects. A file holding a single
// top-level array of objects is read the same way.
func readJSONLines(r io.Reader, emit func(Record) bool) error {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		if _, err := dec.Token(); err != nil {
			return err
		}
		for dec.More() {
			var rec Record
			if err := dec.Decode(&rec); err != nil {
				return err
			}
			if !emit(rec) {
				return nil
			}
		}
		_, err := dec.Token()
		return err
	}

	for {
		var rec Record
		err := dec.Decode(&rec)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if !emit(rec) {
			return nil
		}
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// inferType converts a CSV string value to a typed value.
func inferType(s string) interface{} {
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		if !strings.ContainsAny(s, ".eE") {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return i
			}
		}
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
