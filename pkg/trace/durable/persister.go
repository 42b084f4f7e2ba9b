package durable

import (
	"cmp"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

// PersisterOptions configures a Persister.
type PersisterOptions struct {
	// Now returns the current time. Defaults to time.Now.
	Now    func() time.Time
	Logger logr.Logger
}

// Persister writes the batches of traces of one kind to a Store and reads them back.
type Persister[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	store *Store
	kind  trace.Kind[K, V, T, R]
	now   func() time.Time
	last  time.Duration
	log   logr.Logger
}

// NewPersister creates a persister over a store.
func NewPersister[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](store *Store, kind trace.Kind[K, V, T, R], opts PersisterOptions) *Persister[K, V, T, R] {
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Persister[K, V, T, R]{store: store, kind: kind, now: now, log: logger.WithName("persister")}
}

// Persist stores a batch under a fresh artifact name and returns the name. Names issued by one
// persister are strictly increasing.
func (p *Persister[K, V, T, R]) Persist(batch trace.BatchReader[K, V, T, R]) (string, error) {
	data, err := Encode(batch)
	if err != nil {
		return "", err
	}

	ts := time.Duration(p.now().UnixNano())
	if ts <= p.last {
		ts = p.last + 1
	}
	name := ArtifactName(batch.Identifier(), ts)
	if err := p.store.Put(name, data); err != nil {
		return "", err
	}
	p.last = ts

	p.log.V(2).Info("persisted batch", "name", name, "description", batch.Description().String(),
		"len", batch.Len())
	return name, nil
}

// Reconstitute reads back the batches persisted for an identifier, oldest first. The batches must
// form a contiguous sequence starting at the minimal time.
func (p *Persister[K, V, T, R]) Reconstitute(id trace.BatchIdentifier) ([]trace.Batch[K, V, T, R], error) {
	names, err := p.store.List(id)
	if err != nil {
		return nil, err
	}

	upper := lattice.Antichain[T]{lattice.Minimum[T]()}
	batches := make([]trace.Batch[K, V, T, R], 0, len(names))
	for _, name := range names {
		_, ts, err := ParseArtifactName(name)
		if err != nil {
			return nil, newStoreError("reconstitute", name, err)
		}
		data, err := p.store.Get(name)
		if err != nil {
			return nil, err
		}
		batch, err := Decode(p.kind, data)
		if err != nil {
			return nil, newStoreError("reconstitute", name, err)
		}
		if !lattice.Equal(batch.Lower(), upper) {
			return nil, newStoreError("reconstitute", name,
				fmt.Errorf("batch lower %s does not continue upper %s", batch.Lower(), upper))
		}
		upper = batch.Upper()
		batches = append(batches, batch)
		p.last = max(p.last, ts)
	}

	p.log.V(1).Info("reconstituted trace", "id", id.String(), "batches", len(batches),
		"upper", upper.String())
	return batches, nil
}

// Discard removes the batches persisted for an identifier. A trace built after Discard starts
// empty.
func (p *Persister[K, V, T, R]) Discard(id trace.BatchIdentifier) error {
	if err := p.store.Delete(id); err != nil {
		return err
	}
	p.log.V(1).Info("discarded trace", "id", id.String())
	return nil
}
