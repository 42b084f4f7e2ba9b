package durable

import (
	"cmp"
	"encoding/json"
	"fmt"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

// artifact is the serialized form of a batch.
type artifact[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	Identifier  trace.BatchIdentifier      `json:"identifier"`
	Description trace.Description[T]       `json:"description"`
	Updates     []trace.Update[K, V, T, R] `json:"updates"`
}

// Encode serializes a batch.
func Encode[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](batch trace.BatchReader[K, V, T, R]) ([]byte, error) {
	a := artifact[K, V, T, R]{
		Identifier:  batch.Identifier(),
		Description: batch.Description(),
		Updates:     trace.Collect(batch.Cursor()),
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch %s: %w", batch.Identifier(), err)
	}
	return data, nil
}

// Decode deserializes a batch into the representation of the given kind.
func Decode[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](kind trace.Kind[K, V, T, R], data []byte) (trace.Batch[K, V, T, R], error) {
	var a artifact[K, V, T, R]
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode batch: %w", err)
	}
	builder := kind.NewBuilder(a.Identifier)
	for _, u := range trace.ConsolidateUpdates(a.Updates, 0) {
		builder.Push(u)
	}
	return builder.Done(a.Description.Lower, a.Description.Upper, a.Description.Since), nil
}
