// Package bug marks errors that indicate a defect in tessera itself rather
// than in user input. The CLI prints these differently so users don't try
// to fix their schemes for something they can't fix.
package bug

import (
	"errors"
	"fmt"
)

// Error is an internal-bug error with the module it originated in.
type Error struct {
	Module string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("internal error in %s: %s! this is a bug!", e.Module, e.Reason)
}

// Errorf builds an internal-bug error.
func Errorf(module, format string, args ...any) error {
	return &Error{Module: module, Reason: fmt.Sprintf(format, args...)}
}

// Is reports whether any error in the chain is an internal bug.
func Is(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
