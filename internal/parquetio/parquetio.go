// Package parquetio reads and writes the parquet article batches the
// pipeline operates on. Input schemas vary between dump exports, so the
// text/id/title columns are detected by name rather than fixed up front.
package parquetio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Table is a fully materialized parquet file: a flat schema plus its rows.
// Article batches are sharded small enough to hold in memory.
type Table struct {
	Schema *parquet.Schema
	Names  []string // leaf column names, in schema order
	Rows   []parquet.Row
}

// ReadTable loads an entire parquet file.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat input: %w", err)
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}

	schema := pf.Schema()
	columns := schema.Columns()
	names := make([]string, len(columns))
	for i, path := range columns {
		names[i] = strings.Join(path, ".")
	}

	var rows []parquet.Row
	for _, rg := range pf.RowGroups() {
		r := rg.Rows()
		buf := make([]parquet.Row, 256)
		for {
			n, err := r.ReadRows(buf)
			for i := 0; i < n; i++ {
				rows = append(rows, buf[i].Clone())
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					_ = r.Close()
					return nil, fmt.Errorf("failed to read rows: %w", err)
				}
				break
			}
			if n == 0 {
				break
			}
		}
		if err := r.Close(); err != nil {
			return nil, fmt.Errorf("failed to close row reader: %w", err)
		}
	}

	return &Table{Schema: schema, Names: names, Rows: rows}, nil
}

// Lookup returns the leaf column index for a name, or -1.
func (t *Table) Lookup(name string) int {
	lc, ok := t.Schema.Lookup(name)
	if !ok {
		return -1
	}
	return lc.ColumnIndex
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.Rows) }

// StringCell returns the string value of leaf column col in a row, and
// whether it is non-null.
func StringCell(row parquet.Row, col int) (string, bool) {
	for _, v := range row {
		if v.Column() == col {
			if v.IsNull() {
				return "", false
			}
			return v.String(), true
		}
	}
	return "", false
}

// StringColumn extracts a whole column; nil entries mark nulls.
func (t *Table) StringColumn(name string) ([]*string, error) {
	col := t.Lookup(name)
	if col < 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]*string, len(t.Rows))
	for i, row := range t.Rows {
		if s, ok := StringCell(row, col); ok {
			v := s
			out[i] = &v
		}
	}
	return out, nil
}

var (
	textColumnCandidates   = []string{"text", "content", "official_text", "clone_text"}
	pageIDColumnCandidates = []string{"page_id", "pageid"}
	titleColumnCandidates  = []string{"page_title", "title"}
)

func (t *Table) detect(candidates []string) (string, bool) {
	for _, c := range candidates {
		if t.Lookup(c) >= 0 {
			return c, true
		}
	}
	return "", false
}

// DetectTextColumn picks the wikitext column: known names first, then any
// column whose name contains "text".
func (t *Table) DetectTextColumn() (string, bool) {
	if name, ok := t.detect(textColumnCandidates); ok {
		return name, true
	}
	for _, name := range t.Names {
		if strings.Contains(strings.ToLower(name), "text") {
			return name, true
		}
	}
	return "", false
}

// DetectPageIDColumn picks the page id column used for logging and export
// file names.
func (t *Table) DetectPageIDColumn() (string, bool) {
	return t.detect(pageIDColumnCandidates)
}

// DetectTitleColumn picks the title column used for logging.
func (t *Table) DetectTitleColumn() (string, bool) {
	return t.detect(titleColumnCandidates)
}

// Replacement substitutes one string column on write: OldName is dropped
// from the schema and NewName, an optional string column, takes its place.
// Values holds one entry per row; nil marks null.
type Replacement struct {
	OldName string
	NewName string
	Values  []*string
}

// WriteTable writes the table to path with the given column replacements
// applied. All other columns pass through untouched.
func WriteTable(path string, t *Table, repls []Replacement) error {
	rename := make(map[string]string, len(repls))
	replaced := make(map[string]*Replacement, len(repls))
	for i := range repls {
		if len(repls[i].Values) != len(t.Rows) {
			return fmt.Errorf("replacement %q has %d values for %d rows",
				repls[i].NewName, len(repls[i].Values), len(t.Rows))
		}
		rename[repls[i].OldName] = repls[i].NewName
		replaced[repls[i].NewName] = &repls[i]
	}

	group := parquet.Group{}
	for _, field := range t.Schema.Fields() {
		if newName, ok := rename[field.Name()]; ok {
			group[newName] = parquet.Optional(parquet.String())
		} else {
			group[field.Name()] = field
		}
	}
	outSchema := parquet.NewSchema(t.Schema.Name(), group)

	outNames := make([]string, len(outSchema.Columns()))
	for i, p := range outSchema.Columns() {
		outNames[i] = strings.Join(p, ".")
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	writer := parquet.NewWriter(out, outSchema)

	rowBuf := make(parquet.Row, len(outNames))
	for r, inRow := range t.Rows {
		for outCol, name := range outNames {
			if repl, ok := replaced[name]; ok {
				if s := repl.Values[r]; s != nil {
					rowBuf[outCol] = parquet.ValueOf(*s).Level(0, 1, outCol)
				} else {
					rowBuf[outCol] = parquet.ValueOf(nil).Level(0, 0, outCol)
				}
				continue
			}
			v := cellValue(inRow, t.Lookup(name))
			rowBuf[outCol] = v.Level(v.RepetitionLevel(), v.DefinitionLevel(), outCol)
		}
		if _, err := writer.WriteRows([]parquet.Row{rowBuf}); err != nil {
			_ = out.Close()
			return fmt.Errorf("failed to write row %d: %w", r, err)
		}
	}

	if err := writer.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return out.Close()
}

func cellValue(row parquet.Row, col int) parquet.Value {
	for _, v := range row {
		if v.Column() == col {
			return v
		}
	}
	return parquet.ValueOf(nil)
}
