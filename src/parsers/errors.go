package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
)

// UnsupportedFormatError reports a file that could not be parsed as either a
// workbook or delimited text.
type UnsupportedFormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *UnsupportedFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unsupported format for %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("unsupported format for %s: %s", e.Path, e.Reason)
}

func (e *UnsupportedFormatError) Unwrap() error { return e.Err }

// Detail describes the problem without the file path, for end users.
func (e *UnsupportedFormatError) Detail() string {
	var parseErr *csv.ParseError
	if errors.As(e.Err, &parseErr) {
		return e.Reason + ": " + parseErr.Error()
	}
	return e.Reason
}

// IOError reports a file that could not be read at all.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
