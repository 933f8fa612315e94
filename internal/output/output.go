package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

// Writer writes query results. Flush ends one result set.
type Writer interface {
	WriteRow(cols []string, vals []interface{}) error
	Flush() error
}

// New returns the writer for a config format name.
func New(format string, w io.Writer) (Writer, error) {
	switch format {
	case "", "json":
		return NewJSONWriter(w), nil
	case "table":
		return NewTableWriter(w), nil
	default:
		return nil, errors.Errorf("unknown output format %q", format)
	}
}

// JSONWriter writes JSON lines to an io.Writer.
type JSONWriter struct {
	w io.Writer
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w}
}

func (jw *JSONWriter) WriteRow(cols []string, vals []interface{}) error {
	rec := make(map[string]interface{}, len(cols))
	for i, col := range cols {
		rec[col] = normalize(vals[i])
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encode row")
	}
	_, err = fmt.Fprintln(jw.w, string(b))
	return err
}

func (jw *JSONWriter) Flush() error {
	return nil
}

// TableWriter buffers a result set and renders it as a text table on Flush.
type TableWriter struct {
	w    io.Writer
	cols []string
	rows [][]string
}

func NewTableWriter(w io.Writer) *TableWriter {
	return &TableWriter{w: w}
}

func (tw *TableWriter) WriteRow(cols []string, vals []interface{}) error {
	if tw.cols == nil {
		tw.cols = cols
	}
	row := make([]string, len(vals))
	for i, v := range vals {
		row[i] = cell(v)
	}
	tw.rows = append(tw.rows, row)
	return nil
}

func (tw *TableWriter) Flush() error {
	if tw.cols == nil {
		return nil
	}

	table := tablewriter.NewWriter(tw.w)
	table.SetHeader(tw.cols)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.AppendBulk(tw.rows)
	table.Render()

	_, err := fmt.Fprintf(tw.w, "(%d %s)\n\n", len(tw.rows), plural(len(tw.rows), "row"))
	tw.cols, tw.rows = nil, nil
	return err
}

// normalize turns driver values into values that encode sensibly as JSON.
func normalize(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func cell(v interface{}) string {
	switch v := normalize(v).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
