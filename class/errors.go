package class

import (
	"errors"
	"fmt"
)

var (
	// ErrAmbiguousOwnership is returned when a name is declared twice on one
	// side, or a property is authoritative on both sides.
	ErrAmbiguousOwnership = errors.New("ambiguous ownership")
	// ErrInvalidClassName is returned for names that are not identifiers or
	// end in a digit (instance ids append a counter to the class name).
	ErrInvalidClassName = errors.New("invalid class name")
	// ErrDuplicateClass is returned when declaring a name twice in one catalog.
	ErrDuplicateClass = errors.New("class already declared")
	// ErrUnknownClass is returned when a base or lookup names no declared class.
	ErrUnknownClass = errors.New("unknown class")
	// ErrInvalidDefault is returned when a property default fails normalization.
	ErrInvalidDefault = errors.New("invalid default value")
	// ErrNormalize is wrapped by the built-in normalizers on rejection.
	ErrNormalize = errors.New("value rejected")
)

// DeclarationError reports a fatal problem found while building a class.
type DeclarationError struct {
	Class  string
	Side   Side
	Member string
	Err    error
}

func (e *DeclarationError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("class %s: %v", e.Class, e.Err)
	}
	return fmt.Sprintf("class %s: %s member %q: %v", e.Class, e.Side, e.Member, e.Err)
}

func (e *DeclarationError) Unwrap() error { return e.Err }
