// Package arrange turns streams of updates into shared, incrementally maintained indices.
//
// The Arrange operator consumes a stream of keyed updates, accumulates them in a batcher and seals
// a batch whenever its input frontier passes a time it holds a capability for. Each batch is
// appended to a trace and sent downstream. The trace is owned by a TraceWriter and read through
// any number of TraceAgent handles, which share it in a TraceBox:
//
//   - TraceBox: the trace plus reference-counted hold frontiers of all live agents. The trace is
//     compacted up to the meet of the advance holds and merged up to the meet of the distinguish
//     holds.
//   - TraceAgent: a reader handle with its own holds. Cloned with Clone, dropped with Release.
//   - TraceWriter: the only mutator. Every Seal is fanned out to the listeners of the trace so
//     that other dataflows can Import it.
//   - Arranged: a stream of batches paired with a reader of the trace they form.
//
// Example usage:
//
//	input, updates := dataflow.NewInputSession[string, string, lattice.Time, int](scope, "input")
//	arranged, err := arrange.Arrange(updates, arrange.Options[string, string, lattice.Time, int]{})
//	...
//	imported := arranged.Agent().Import(otherScope)
package arrange
