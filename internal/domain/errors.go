package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks. Each typed error below unwraps to one of these.
var (
	ErrFormat      = errors.New("undecodable input")
	ErrDateParse   = errors.New("invalid date field")
	ErrValueParse  = errors.New("invalid value field")
	ErrEmptySeries = errors.New("empty series")
	ErrOptions     = errors.New("invalid analysis options")
)

// FormatError reports input bytes that cannot be decoded as Windows-1252 text.
type FormatError struct {
	Offset int
	Byte   byte
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("undecodable input: byte 0x%02X at offset %d", e.Byte, e.Offset)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// DateParseError reports a data row whose date field is not YYYY-MM-DD.
type DateParseError struct {
	Line  int
	Value string
	Err   error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("line %d: invalid date %q: %v", e.Line, e.Value, e.Err)
}

func (e *DateParseError) Unwrap() []error { return []error{ErrDateParse, e.Err} }

// ValueParseError reports a data row whose reading is not a finite decimal number.
type ValueParseError struct {
	Line  int
	Value string
	Err   error
}

func (e *ValueParseError) Error() string {
	return fmt.Sprintf("line %d: invalid value %q: %v", e.Line, e.Value, e.Err)
}

func (e *ValueParseError) Unwrap() []error { return []error{ErrValueParse, e.Err} }

// EmptySeriesError reports an analysis that needs at least one valid observation.
type EmptySeriesError struct {
	Analysis string
}

func (e *EmptySeriesError) Error() string {
	return fmt.Sprintf("%s: series has no valid observations", e.Analysis)
}

func (e *EmptySeriesError) Unwrap() error { return ErrEmptySeries }

// OptionsError reports an analysis option outside its allowed values.
type OptionsError struct {
	Field string
	Value string
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("invalid analysis options: unknown %s %q", e.Field, e.Value)
}

func (e *OptionsError) Unwrap() error { return ErrOptions }
