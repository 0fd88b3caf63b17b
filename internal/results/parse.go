package results

// parse.go turns raw tabular input into a SourceTable.
//
// Three input shapes are accepted:
//   - CSV bytes (encoding/csv, lazy quotes, ragged rows tolerated)
//   - XLSX workbook bytes (excelize, first sheet only)
//   - a JSON array of row objects, as produced by clients that parse
//     the workbook themselves
//
// The first row (or the object keys of the first JSON row, in document
// order) defines the column names. Rows whose cells are all empty are
// retained as empty-valued rows, not dropped. Parsing is pure: no
// side effects, no I/O beyond the provided bytes.

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Row maps column names to raw cell values for one source row.
type Row map[string]string

// SourceTable is the canonical untyped view of one uploaded dataset.
// Transient, produced per upload; only the mapping resolver carries its
// contents across into the typed model.
type SourceTable struct {
	Columns []string
	Rows    []Row
}

// Cell returns the raw value of a column in a row, trimmed of CSV and
// spreadsheet artifacts. Missing columns yield the empty string.
func (r Row) Cell(column string) string {
	return CleanCell(r[column])
}

// ParseCSV decodes CSV bytes into a SourceTable.
// The first record is the header. Returns *ParseError when the input
// yields zero columns or zero data rows.
func ParseCSV(data []byte) (*SourceTable, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = sanitizeUTF8(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("invalid csv: %v", err)}
	}

	return tableFromRecords(records)
}

// ParseWorkbook decodes a binary .xlsx workbook into a SourceTable.
// Only the first sheet is read.
func ParseWorkbook(data []byte) (*SourceTable, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("invalid workbook: %v", err)}
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Msg: "workbook has no sheets"}
	}

	records, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("read sheet %q: %v", sheets[0], err)}
	}

	return tableFromRecords(records)
}

// ParseJSONRows decodes a JSON array of row objects into a SourceTable.
// Column names come from the first object's keys in document order;
// later objects may omit columns (empty cell) but introduce no new ones.
func ParseJSONRows(data []byte) (*SourceTable, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("invalid json: %v", err)}
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, &ParseError{Msg: "expected a json array of row objects"}
	}

	table := &SourceTable{}
	seen := make(map[string]bool)

	for dec.More() {
		row, order, err := decodeRowObject(dec)
		if err != nil {
			return nil, &ParseError{Msg: fmt.Sprintf("invalid row object: %v", err)}
		}
		// First row fixes the column order.
		for _, col := range order {
			if !seen[col] {
				seen[col] = true
				table.Columns = append(table.Columns, col)
			}
		}
		table.Rows = append(table.Rows, row)
	}

	if len(table.Columns) == 0 {
		return nil, &ParseError{Msg: "no columns in source"}
	}
	if len(table.Rows) == 0 {
		return nil, &ParseError{Msg: "no data rows in source"}
	}
	return table, nil
}

// decodeRowObject reads one {..} object from the decoder, preserving
// key order. Scalar values are stringified; nested values are rejected.
func decodeRowObject(dec *json.Decoder) (Row, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	row := make(Row)
	var order []string

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected string key, got %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		val, err := scalarString(valTok)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", key, err)
		}

		order = append(order, key)
		row[key] = val
	}

	// Consume closing brace. EOF here means the object was truncated.
	if _, err := dec.Token(); err != nil {
		if err == io.EOF {
			return nil, nil, io.ErrUnexpectedEOF
		}
		return nil, nil, err
	}

	return row, order, nil
}

// scalarString converts a decoded JSON scalar to its cell string form.
func scalarString(tok json.Token) (string, error) {
	switch v := tok.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", nil
	case json.Delim:
		return "", fmt.Errorf("nested values are not supported")
	default:
		return "", fmt.Errorf("unsupported value %v", v)
	}
}

// tableFromRecords builds a SourceTable from header + data records.
func tableFromRecords(records [][]string) (*SourceTable, error) {
	if len(records) == 0 {
		return nil, &ParseError{Msg: "empty source"}
	}

	// Empty header cells are skipped, but each kept column remembers its
	// original position so data cells stay aligned with their headers.
	header := records[0]
	var columns []string
	var positions []int
	for i, h := range header {
		h = CleanCell(h)
		if h != "" {
			columns = append(columns, h)
			positions = append(positions, i)
		}
	}
	if len(columns) == 0 {
		return nil, &ParseError{Msg: "no columns in source"}
	}

	dataRows := records[1:]
	if len(dataRows) == 0 {
		return nil, &ParseError{Msg: "no data rows in source"}
	}

	table := &SourceTable{Columns: columns}
	for _, rec := range dataRows {
		row := make(Row, len(columns))
		for i, col := range columns {
			if pos := positions[i]; pos < len(rec) {
				row[col] = rec[pos]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// HasColumn reports whether the table contains the named column.
func (t *SourceTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement rune
// so that spreadsheet exports with broken encodings survive parsing.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// trims whitespace, strips an Excel formula prefix (="..."), and strips
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)

	return strings.TrimSpace(s)
}
