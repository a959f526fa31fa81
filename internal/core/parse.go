package core

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// ParseOptions controls Parse. The zero value auto-detects the delimiter
// and applies no size limit.
type ParseOptions struct {
	Delimiter rune  // ',' or ';'; 0 to detect from the header line
	MaxBytes  int64 // 0 for no limit
}

// Parse reads delimited text into trimmed headers and rows keyed by them.
//
// The first non-blank line is the header. Blank lines, including lines made
// only of delimiters and whitespace, are skipped. Rows shorter than the
// header are padded with empty cells and longer rows are truncated. When a
// header name repeats, the first column with that name wins.
func Parse(r io.Reader, opts ParseOptions) (*ParseResult, error) {
	text, err := readInput(r, opts.MaxBytes)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Err: ErrEmptyFile}
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = detectDelimiter(text)
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		headers []string
		columns map[string]int
		rows    []RawRow
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &ParseError{Line: line, Err: err}
		}
		if isEmptyRow(record) {
			continue
		}

		if headers == nil {
			headers, columns = buildHeaders(record)
			continue
		}
		rows = append(rows, buildRow(record, headers, columns))
	}

	if headers == nil {
		return nil, &ParseError{Err: ErrNoHeader}
	}

	return &ParseResult{Headers: headers, Rows: rows, Delimiter: delim}, nil
}

// buildHeaders trims the header cells and indexes the first column of each name.
func buildHeaders(record []string) ([]string, map[string]int) {
	headers := make([]string, len(record))
	columns := make(map[string]int, len(record))
	for i, h := range record {
		h = strings.TrimSpace(h)
		headers[i] = h
		if h == "" {
			continue
		}
		if _, dup := columns[h]; !dup {
			columns[h] = i
		}
	}
	return headers, columns
}

func buildRow(record, headers []string, columns map[string]int) RawRow {
	row := make(RawRow, len(columns))
	for name, i := range columns {
		if i < len(record) {
			row[name] = record[i]
		} else {
			row[name] = ""
		}
	}
	return row
}

// detectDelimiter counts commas and semicolons outside quotes on the first
// non-blank line. Semicolon wins only when strictly more frequent.
func detectDelimiter(text string) rune {
	line := firstNonBlankLine(text)
	commas, semicolons := 0, 0
	inQuotes := false
	for _, r := range line {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				commas++
			}
		case ';':
			if !inQuotes {
				semicolons++
			}
		}
	}
	if semicolons > commas {
		return ';'
	}
	return ','
}

func firstNonBlankLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
