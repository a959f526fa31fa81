package core

// streaming.go provides the readers applied to uploaded files before parsing:
//
//   - BOMSkippingReader: Removes a leading UTF-8 BOM (0xEF 0xBB 0xBF)
//   - sizeLimitReader: Fails with ErrFileTooLarge past a byte budget
//   - decodeText: Falls back to Windows-1252 when the bytes are not UTF-8
//
// Spreadsheet exports from older Excel versions are Windows-1252, which
// is why the fallback exists.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	reader     *bufio.Reader
	bomChecked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: bufio.NewReader(r)}
}

// Read implements io.Reader. On the first read, it checks for and skips the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.bomChecked {
		r.bomChecked = true
		head, err := r.reader.Peek(len(utf8BOM))
		if err == nil && bytes.Equal(head, utf8BOM) {
			if _, err := r.reader.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return r.reader.Read(p)
}

// sizeLimitReader returns ErrFileTooLarge once more than limit bytes are read.
// A limit of zero or less disables the check.
type sizeLimitReader struct {
	reader io.Reader
	limit  int64
	read   int64
}

func (r *sizeLimitReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.read += int64(n)
	if r.limit > 0 && r.read > r.limit {
		return n, ErrFileTooLarge
	}
	return n, err
}

// readInput reads the whole upload through the BOM and size-limit wrappers
// and returns it as UTF-8 text.
func readInput(r io.Reader, maxBytes int64) (string, error) {
	data, err := io.ReadAll(NewBOMSkippingReader(&sizeLimitReader{reader: r, limit: maxBytes}))
	if err != nil {
		return "", err
	}
	return decodeText(data)
}

// decodeText returns data as a string, decoding from Windows-1252 when data
// is not valid UTF-8.
func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
