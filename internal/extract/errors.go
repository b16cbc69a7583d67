package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRawColumn is returned when a companies extract has no raw column
	ErrMissingRawColumn = errors.New("extract has no raw column")
	// ErrEmptyExtract is returned when a companies extract has no header row
	ErrEmptyExtract = errors.New("extract is empty")
)

// WriteError represents a failure writing an extract file
type WriteError struct {
	Path    string
	Message string
	Cause   error
}

func (e *WriteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("write error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("write error for %s: %s", e.Path, e.Message)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}
