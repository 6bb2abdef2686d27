package model

import (
	"errors"
	"fmt"
	"strings"
)

// InputFormatError is a structural problem with the input sheet. The whole
// batch fails.
type InputFormatError struct {
	Reason  string
	Columns []string
}

func (e *InputFormatError) Error() string {
	if len(e.Columns) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s (available columns: %s)", e.Reason, strings.Join(e.Columns, ", "))
}

// ValidationError rejects an input before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PersistenceError wraps a failure of the reference/price store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s: %s", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ErrDuplicateHoliday is returned when adding a date that is already a holiday.
var ErrDuplicateHoliday = errors.New("holiday already exists")

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInputFormat reports whether err carries an *InputFormatError.
func IsInputFormat(err error) bool {
	var ie *InputFormatError
	return errors.As(err, &ie)
}
