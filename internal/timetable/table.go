package timetable

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding is the input encoding assumed when none is configured.
const DefaultEncoding = "utf-8"

// ctxCheckInterval is how many rows are read between context checks.
const ctxCheckInterval = 1024

// unnamedPrefix names header cells that are blank.
const unnamedPrefix = "Unnamed: "

// Load errors.
var (
	ErrEmptyInput     = errors.New("no columns to parse from input")
	ErrRaggedRow      = errors.New("row has more fields than the header")
	ErrMissingColumns = errors.New("required columns missing from header")
	ErrUnknownCharset = errors.New("unknown input encoding")
)

// Table is a CSV file held as string cells. Every row has exactly
// len(Columns) cells; missing trailing cells are empty strings.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// LoadOptions controls how input is decoded.
type LoadOptions struct {
	// Encoding is a WHATWG encoding label such as "utf-8", "windows-1252"
	// or "shift_jis". Empty means utf-8.
	Encoding string
	// Comma is the field delimiter. Zero means ','.
	Comma rune
}

// NewTable builds a table from a header and rows, padding short rows.
// It does not check for required columns.
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{Columns: columns, Rows: make([][]string, 0, len(rows))}
	t.buildIndex()
	for _, r := range rows {
		t.Rows = append(t.Rows, pad(r, len(columns)))
	}
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	if t.index == nil {
		t.buildIndex()
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// MissingColumns returns the required columns absent from the header.
func (t *Table) MissingColumns() []string {
	var missing []string
	for _, c := range RequiredColumns {
		if t.Index(c) < 0 {
			missing = append(missing, c)
		}
	}
	return missing
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// Load reads a delimited file with a header row into a Table.
//
// Blank lines are skipped, short rows are padded with empty strings and a
// row with more fields than the header is an error. The header must contain
// every column in RequiredColumns.
func Load(ctx context.Context, r io.Reader, opts LoadOptions) (*Table, error) {
	decoded, err := Decode(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := newCSVReader(decoded, opts.Comma)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	table := NewTable(dedupeColumns(header), nil)

	if missing := table.MissingColumns(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	for n := 0; ; n++ {
		if n%ctxCheckInterval == 0 {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
		}

		row, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("reading row: %w", readErr)
		}

		if len(row) > len(table.Columns) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields, expected %d",
				ErrRaggedRow, line, len(row), len(table.Columns))
		}
		table.Rows = append(table.Rows, pad(row, len(table.Columns)))
	}

	return table, nil
}

// Decode wraps r so that it yields UTF-8 text. A leading byte order mark is
// honoured and removed regardless of the named encoding. UTF-8 input is
// validated rather than repaired: invalid bytes fail the read with
// encoding.ErrInvalidUTF8.
func Decode(r io.Reader, name string) (io.Reader, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	var fallback transform.Transformer = enc.NewDecoder()
	if enc == unicode.UTF8 {
		fallback = encoding.UTF8Validator
	}
	return transform.NewReader(r, unicode.BOMOverride(fallback)), nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, DefaultEncoding) || strings.EqualFold(name, "utf8") {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, name)
	}
	return enc, nil
}

func newCSVReader(r io.Reader, comma rune) *csv.Reader {
	reader := csv.NewReader(r)
	if comma != 0 {
		reader.Comma = comma
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// dedupeColumns trims header names, names blank ones "Unnamed: <index>" and
// renames repeats as name.1, name.2, ...
func dedupeColumns(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))

	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = unnamedPrefix + strconv.Itoa(i)
		}
		if _, dup := seen[name]; !dup {
			seen[name] = 0
			out[i] = name
			continue
		}

		for {
			seen[name]++
			candidate := name + "." + strconv.Itoa(seen[name])
			if _, taken := seen[candidate]; !taken {
				seen[candidate] = 0
				out[i] = candidate
				break
			}
		}
	}

	return out
}

func pad(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
