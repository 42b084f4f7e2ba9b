package durable

import "fmt"

// StoreError is returned when the artifact store fails.
type StoreError struct {
	Op    string
	Name  string
	Cause error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("durable store: %s %s: %v", e.Op, e.Name, e.Cause)
	}
	return fmt.Sprintf("durable store: %s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }

func newStoreError(op, name string, cause error) error {
	return &StoreError{Op: op, Name: name, Cause: cause}
}
