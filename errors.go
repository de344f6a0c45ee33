package smt

import (
	"errors"
	"fmt"
)

// Failure taxonomy. Every error returned by this package wraps exactly
// one of these sentinels, so callers can classify with errors.Is.
var (
	// ErrIncorrectUsage marks API misuse no backend could resolve
	// (unbalanced pop, duplicate symbol, untranslated symbol, ...).
	ErrIncorrectUsage = errors.New("smt: incorrect usage")

	// ErrUnsupported marks a capability with no implementation path in
	// the current backend or in the sort checker's dispatch.
	ErrUnsupported = errors.New("smt: unsupported")

	// ErrBackend marks an error reported by the underlying solver.
	ErrBackend = errors.New("smt: backend failure")
)

func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIncorrectUsage, fmt.Sprintf(format, args...))
}

func unsupportedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}

func backendErr(cause error) error {
	return fmt.Errorf("%w: %v", ErrBackend, cause)
}
