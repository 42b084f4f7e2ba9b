// Package trace defines the batch and trace abstractions of ddflow and the Spine trace container.
//
// A trace is the append-only, indexed history of the updates of a collection. Updates are
// (key, value, time, diff) tuples; the content of the collection at a time t is, per (key, value),
// the sum of the diffs of all updates whose time is less or equal to t. A trace is a contiguous
// sequence of immutable batches, each described by a lower, an upper and a since frontier.
//
// Key components:
//   - Update, Description, BatchIdentifier: the data model.
//   - Consolidate: canonicalization of (item, diff) sequences.
//   - Cursor, BatchReader, Batch, Batcher, Builder, Merger: the contract a batch representation
//     must satisfy. Kind bundles a concrete representation (see the ord package).
//   - TraceReader, Trace, SharedReader: the read side and write side of a trace.
//   - Spine: a trace built from batches of one Kind, with fuel-bounded incremental merging.
//
// Invariant violations (non-contiguous inserts, unavailable cursors) are programming errors and
// panic with an *InvariantError.
package trace
