package appointments

import (
	"errors"
	"fmt"
)

var (
	ErrLoad          = errors.New("loading appointments")
	ErrSchema        = errors.New("schema mismatch")
	ErrParse         = errors.New("parsing appointment")
	ErrEmptyGroup    = errors.New("empty group")
	ErrUnknownColumn = errors.New("unknown column")
)

// ParseError identifies the cell which could not be coerced into its column's
// type. Row is the line number of the record in the source file.
type ParseError struct {
	Row    int
	Column Column
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: row %d: column %s: value %q: %v", ErrParse, e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}
