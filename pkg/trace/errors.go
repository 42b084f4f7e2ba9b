package trace

import "fmt"

// InvariantError signals a broken internal contract. It is always raised via panic.
type InvariantError struct {
	Op      string
	Message string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Op, e.Message)
}

// Invariantf panics with an *InvariantError.
func Invariantf(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Message: fmt.Sprintf(format, args...)})
}

// ParseError is returned when a textual identifier cannot be parsed.
type ParseError struct {
	Input string
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid batch identifier %q: %v", e.Input, e.Cause)
	}
	return fmt.Sprintf("invalid batch identifier %q", e.Input)
}

func (e *ParseError) Unwrap() error { return e.Cause }
