package sources

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	apperrors "balag/internal/errors"
)

const utf8BOM = "\ufeff"

// Table is a delimited-text file held in memory as strings
type Table struct {
	Header []string
	Rows   [][]string
}

// TableOptions controls how a table is read
type TableOptions struct {
	// Separator between fields, tab when zero
	Separator rune
	// Columns restricts and orders the returned columns; all columns when empty
	Columns []string
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of column in the header, or -1
func (t *Table) Index(column string) int {
	for i, h := range t.Header {
		if h == column {
			return i
		}
	}
	return -1
}

// ReadTable parses a delimited file with a header line. Short rows are padded
// with empty fields.
func ReadTable(r io.Reader, opts TableOptions) (*Table, error) {
	sep := opts.Separator
	if sep == 0 {
		sep = '\t'
	}

	reader := csv.NewReader(bufio.NewReaderSize(r, 1<<20))
	reader.Comma = sep
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.NewParsingError("table has no header line", apperrors.ErrEmptyTable)
	}
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read header", err)
	}
	header = append([]string(nil), header...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	selected, columns, err := selectColumns(header, opts.Columns)
	if err != nil {
		return nil, err
	}

	table := &Table{Header: columns}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read line %d", line), err)
		}
		if len(record) > len(header) {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("line %d has %d fields, header has %d", line, len(record), len(header)), nil)
		}

		row := make([]string, len(selected))
		for i, idx := range selected {
			if idx < len(record) {
				row[i] = record[idx]
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func selectColumns(header, wanted []string) ([]int, []string, error) {
	if len(wanted) == 0 {
		idx := make([]int, len(header))
		for i := range header {
			idx[i] = i
		}
		return idx, header, nil
	}

	positions := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := positions[h]; !dup {
			positions[h] = i
		}
	}

	idx := make([]int, len(wanted))
	var missing []string
	for i, col := range wanted {
		p, ok := positions[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		idx[i] = p
	}
	if len(missing) > 0 {
		return nil, nil, apperrors.NewParsingError("requested columns not found",
			fmt.Errorf("%w: %s", apperrors.ErrMissingColumn, strings.Join(missing, ", "))).
			WithContext("columns", missing)
	}

	return idx, append([]string(nil), wanted...), nil
}

// WriteTable writes the table as delimited text with a header line
func WriteTable(w io.Writer, table *Table, sep rune) error {
	if sep == 0 {
		sep = '\t'
	}
	writer := csv.NewWriter(w)
	writer.Comma = sep

	if err := writer.Write(table.Header); err != nil {
		return err
	}
	for _, row := range table.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
