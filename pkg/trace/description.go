package trace

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/l7mp/ddflow/pkg/lattice"
)

// Description describes the times of the updates in a batch: every time is greater or equal to
// some element of Lower and not greater or equal to any element of Upper. Times not greater or
// equal to Since may have been advanced to Since.
type Description[T lattice.Lattice[T]] struct {
	Lower lattice.Antichain[T] `json:"lower"`
	Upper lattice.Antichain[T] `json:"upper"`
	Since lattice.Antichain[T] `json:"since"`
}

// NewDescription creates a description from three frontiers. The frontiers are copied.
func NewDescription[T lattice.Lattice[T]](lower, upper, since []T) Description[T] {
	return Description[T]{
		Lower: lattice.Antichain[T](lower).Clone(),
		Upper: lattice.Antichain[T](upper).Clone(),
		Since: lattice.Antichain[T](since).Clone(),
	}
}

func (d Description[T]) String() string {
	return fmt.Sprintf("[%s, %s) since %s", d.Lower, d.Upper, d.Since)
}

// BatchIdentifier names the operator instance that produced a batch: the operator's address in
// the dataflow and the id of the trace within that operator.
type BatchIdentifier struct {
	Address []int `json:"address"`
	TraceID int   `json:"traceId"`
}

// NewBatchIdentifier creates an identifier. The address is copied. Components must not be
// negative, so that every identifier survives a round trip through its string form.
func NewBatchIdentifier(address []int, traceID int) BatchIdentifier {
	for _, a := range address {
		if a < 0 {
			Invariantf("NewBatchIdentifier", "negative address component %d in %v", a, address)
		}
	}
	if traceID < 0 {
		Invariantf("NewBatchIdentifier", "negative trace id %d", traceID)
	}
	return BatchIdentifier{Address: slices.Clone(address), TraceID: traceID}
}

// String returns the dot-joined address components followed by the trace id, e.g., "3.5.2.12".
func (id BatchIdentifier) String() string {
	parts := make([]string, 0, len(id.Address)+1)
	for _, a := range id.Address {
		parts = append(parts, strconv.Itoa(a))
	}
	parts = append(parts, strconv.Itoa(id.TraceID))
	return strings.Join(parts, ".")
}

// Equal reports whether two identifiers name the same operator instance and trace.
func (id BatchIdentifier) Equal(other BatchIdentifier) bool {
	return id.TraceID == other.TraceID && slices.Equal(id.Address, other.Address)
}

// ParseBatchIdentifier parses the string form produced by BatchIdentifier.String.
func ParseBatchIdentifier(s string) (BatchIdentifier, error) {
	if s == "" {
		return BatchIdentifier{}, &ParseError{Input: s}
	}
	elems := strings.Split(s, ".")
	ns := make([]int, len(elems))
	for i, e := range elems {
		n, err := strconv.Atoi(e)
		if err != nil {
			return BatchIdentifier{}, &ParseError{Input: s, Cause: err}
		}
		if n < 0 {
			return BatchIdentifier{}, &ParseError{Input: s, Cause: fmt.Errorf("negative component %d", n)}
		}
		ns[i] = n
	}
	var address []int
	if len(ns) > 1 {
		address = ns[:len(ns)-1]
	}
	return BatchIdentifier{Address: address, TraceID: ns[len(ns)-1]}, nil
}
