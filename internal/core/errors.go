package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores and lookups when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmptyFile is wrapped in a ParseError when the input has no content.
	ErrEmptyFile = errors.New("empty file")

	// ErrNoHeader is wrapped in a ParseError when no header row can be found.
	ErrNoHeader = errors.New("missing header row")

	// ErrFileTooLarge is wrapped in a ParseError when the input exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrImportNotFound is returned when an import session id is unknown or expired.
	ErrImportNotFound = errors.New("import not found")

	// ErrAlreadyRolledBack is returned when a batch is rolled back twice.
	ErrAlreadyRolledBack = errors.New("batch already rolled back")

	// ErrUnknownStatus is returned when a status change names no known status.
	ErrUnknownStatus = errors.New("unknown status")

	// ErrInvalidSalePrice is returned when a sale is recorded with a negative price.
	ErrInvalidSalePrice = errors.New("sale price must not be negative")
)

// ParseError reports input that cannot be read as delimited text.
// No import state exists when it is returned.
type ParseError struct {
	Line int // 0 when not tied to a line
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid csv: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("invalid csv: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MapError reports a structurally invalid column mapping. No rows were processed.
type MapError struct {
	Index  int // position of the offending entry, -1 for the whole list
	Reason string
}

func (e *MapError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid mapping: entry %d: %s", e.Index+1, e.Reason)
	}
	return "invalid mapping: " + e.Reason
}

// InvalidBatchError reports that the records handed to Validate are not a
// well-formed collection. Row content problems are never reported this way.
type InvalidBatchError struct {
	Index  int
	Reason string
}

func (e *InvalidBatchError) Error() string {
	return fmt.Sprintf("invalid batch: record %d: %s", e.Index+1, e.Reason)
}

// CommitError reports a failed durable write. The prospect collection is
// left as it was after the last successful commit.
type CommitError struct {
	Count int
	Err   error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed for %d prospects: %v", e.Count, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
