package memoria

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup by id yields no record.
var ErrNotFound = errors.New("memoria not found")

// ParseError indicates the input was not well-formed JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing document: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError indicates a well-formed document is missing a required
// top-level section.
type ValidationError struct {
	Section string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required section: %s", e.Section)
}

// StorageError wraps a failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
