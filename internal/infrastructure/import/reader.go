package csvimport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Reader reads a CSV file with a header row and exposes records as
// header-keyed rows. Input must be UTF-8; a leading BOM is stripped.
type Reader struct {
	csv       *csv.Reader
	headerMap map[string]int
	headers   []string
	rowNum    int
}

// ReaderOption configures a Reader
type ReaderOption func(*readerConfig)

type readerConfig struct {
	delimiter rune
}

// WithDelimiter sets the field delimiter. Default is comma.
func WithDelimiter(d rune) ReaderOption {
	return func(c *readerConfig) {
		c.delimiter = d
	}
}

// NewReader wraps r and reads the header row. Header names are
// lower-cased and trimmed so lookups are case-insensitive.
func NewReader(r io.Reader, opts ...ReaderOption) (*Reader, error) {
	cfg := readerConfig{delimiter: ','}
	for _, opt := range opts {
		opt(&cfg)
	}

	buf := bufio.NewReader(r)
	if err := stripBOM(buf); err != nil {
		return nil, err
	}

	cr := csv.NewReader(buf)
	cr.Comma = cfg.delimiter
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	headers := make([]string, len(header))
	headerMap := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if !utf8.ValidString(name) {
			return nil, ErrInvalidEncoding
		}
		headers[i] = name
		headerMap[name] = i
	}

	return &Reader{
		csv:       cr,
		headerMap: headerMap,
		headers:   headers,
		rowNum:    1,
	}, nil
}

// stripBOM consumes a UTF-8 byte order mark if present
func stripBOM(r *bufio.Reader) error {
	bom, err := r.Peek(3)
	if err != nil && err != io.EOF {
		return err
	}
	if len(bom) == 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		if _, err := r.Discard(3); err != nil {
			return err
		}
	}
	return nil
}

// Headers returns the normalized header names in file order
func (r *Reader) Headers() []string {
	return r.headers
}

// HasColumn reports whether the header row contains the named column
func (r *Reader) HasColumn(name string) bool {
	_, ok := r.headerMap[strings.ToLower(name)]
	return ok
}

// MissingColumns returns the required columns absent from the header
func (r *Reader) MissingColumns(required []string) []string {
	var missing []string
	for _, name := range required {
		if !r.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Row is one CSV record keyed by header name. Num is the 1-based file
// line number including the header.
type Row struct {
	Num    int
	fields []string
	reader *Reader
}

// Get returns the trimmed value of the named column, or "" when the
// column is absent or the record is short
func (row *Row) Get(name string) string {
	idx, ok := row.reader.headerMap[strings.ToLower(name)]
	if !ok || idx >= len(row.fields) {
		return ""
	}
	return strings.TrimSpace(row.fields[idx])
}

// IsEmpty reports whether every field in the record is blank
func (row *Row) IsEmpty() bool {
	for _, f := range row.fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Next returns the next record, io.EOF at end of file. Malformed
// records return an error with the offending line number.
func (r *Reader) Next() (*Row, error) {
	fields, err := r.csv.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	r.rowNum++
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", r.rowNum, err)
	}
	for _, f := range fields {
		if !utf8.ValidString(f) {
			return nil, fmt.Errorf("row %d: %w", r.rowNum, ErrInvalidEncoding)
		}
	}
	return &Row{Num: r.rowNum, fields: fields, reader: r}, nil
}
