package extract

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse matches every error produced while reading a response object.
var ErrParse = errors.New("response parse error")

// MissingFieldError is returned when a required field is absent or null.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// Is reports whether target is ErrParse.
func (e *MissingFieldError) Is(target error) bool { return target == ErrParse }

// InvalidTypeError is returned when a field is present but cannot be coerced.
type InvalidTypeError struct {
	Field string
	Want  string
	Value any
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("field %q: cannot use %#v as %s", e.Field, e.Value, e.Want)
}

// Is reports whether target is ErrParse.
func (e *InvalidTypeError) Is(target error) bool { return target == ErrParse }

// InvalidEnumValueError is returned when a string is outside a closed set.
type InvalidEnumValueError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *InvalidEnumValueError) Error() string {
	return fmt.Sprintf("field %q: invalid value %q (allowed: %s)", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// Is reports whether target is ErrParse.
func (e *InvalidEnumValueError) Is(target error) bool { return target == ErrParse }

// MalformedError is returned when a response body is not valid JSON.
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed response body: %v", e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Is reports whether target is ErrParse.
func (e *MalformedError) Is(target error) bool { return target == ErrParse }
