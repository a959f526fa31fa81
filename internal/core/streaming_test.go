package core

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("nom;email")...),
			expected: "nom;email",
		},
		{
			name:     "file without BOM",
			input:    []byte("nom;email"),
			expected: "nom;email",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewBOMSkippingReader(bytes.NewReader(tt.input))
			result, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "valid UTF-8 is unchanged",
			input: []byte("Téléphone"),
			want:  "Téléphone",
		},
		{
			name:  "Windows-1252 accents are decoded",
			input: []byte{'T', 0xE9, 'l', 0xE9, 'p', 'h', 'o', 'n', 'e'},
			want:  "Téléphone",
		},
		{
			name:  "Windows-1252 euro sign",
			input: []byte{'1', '2', 0x80},
			want:  "12€",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeText(tt.input)
			if err != nil {
				t.Fatalf("decodeText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("decodeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadInputSizeLimit(t *testing.T) {
	input := strings.Repeat("a", 100)

	if _, err := readInput(strings.NewReader(input), 100); err != nil {
		t.Errorf("readInput at limit: unexpected error %v", err)
	}

	_, err := readInput(strings.NewReader(input), 99)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("readInput over limit: err = %v, want ErrFileTooLarge", err)
	}

	if _, err := readInput(strings.NewReader(input), 0); err != nil {
		t.Errorf("readInput without limit: unexpected error %v", err)
	}
}
