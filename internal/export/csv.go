package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dm/spm-go/internal/model"
)

// CSVHeader is the first record of every exported report.
var CSVHeader = []string{"Category", "Name", "Health", "Value"}

// fieldReplacer keeps every field on one line and free of separators, so
// that consumers splitting lines on "," see a fixed column count. Fields are
// never quoted.
var fieldReplacer = strings.NewReplacer(",", ";", "\r\n", " ", "\r", " ", "\n", " ")

func csvField(s string) string {
	return fieldReplacer.Replace(s)
}

type lineWriter struct {
	w   io.Writer
	err error
}

func (lw *lineWriter) comments(comments []string) {
	for _, c := range comments {
		for _, line := range strings.Split(c, "\n") {
			lw.printf("# %s\n", line)
		}
	}
}

func (lw *lineWriter) record(fields ...string) {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = csvField(f)
	}
	lw.printf("%s\n", strings.Join(out, ","))
}

func (lw *lineWriter) printf(format string, args ...any) {
	if lw.err != nil {
		return
	}
	_, lw.err = fmt.Fprintf(lw.w, format, args...)
}

// WriteCSV writes r as CSV in report order. Each comment is written first as
// a "# " line.
func WriteCSV(w io.Writer, r model.Report, comments ...string) error {
	lw := &lineWriter{w: w}
	lw.comments(comments)
	lw.record(CSVHeader...)
	for _, row := range r.Rows {
		lw.record(row.Category, row.Name, row.Health.String(), row.Value)
	}
	if lw.err != nil {
		return fmt.Errorf("WriteCSV: %w", lw.err)
	}
	return nil
}

// WriteTable writes t as CSV with the same field rules as WriteCSV. An
// unknown table writes its comments and header only.
func WriteTable(w io.Writer, t model.Table, comments ...string) error {
	lw := &lineWriter{w: w}
	lw.comments(comments)
	lw.record(t.Columns...)
	for _, row := range t.Rows {
		lw.record(row...)
	}
	if lw.err != nil {
		return fmt.Errorf("WriteTable: %w", lw.err)
	}
	return nil
}
