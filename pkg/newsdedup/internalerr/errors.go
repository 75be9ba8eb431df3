package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDuplicate     = errors.New("duplicate entry")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// InputError reports a malformed record. Line is the 1-based record or
// source line, 0 when the position is unknown.
type InputError struct {
	Line  int
	Field string
	Msg   string
}

func (e *InputError) Error() string {
	msg := e.Msg
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Line > 0 {
		return fmt.Sprintf("row %d: %s", e.Line, msg)
	}
	return msg
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *InputError) Unwrap() error { return ErrInvalidInput }

// ConfigError reports an option outside its accepted range.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Msg)
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }
