// Package dataflow implements the minimal progress-tracking dataflow substrate the arrangement layer runs on.
//
// A Worker owns a graph of operators and schedules them cooperatively in topological order from a
// single goroutine. Operators exchange timestamped messages over streams and hold capabilities
// for the times at which they may still produce output. Progress is computed on demand: the
// frontier of an input is the lower envelope of its queued message times and of the frontier of
// the upstream output, the frontier of an output is the lower envelope of the capabilities its
// operator holds and of the operator's input frontiers.
//
// Key components:
//   - Worker: operator registry and scheduler (Step, StepWhile, Run).
//   - Scope: a dataflow or a nested child scope with its own time type.
//   - Capability and InputCapability: the right to produce output at a time.
//   - Source, Unary, Binary, Sink: generic operator builders.
//   - InputHandle and InputSession: feeding data into a dataflow.
//   - Probe and Capture: observing progress and output.
//   - Hash, Partition, Execute: key partitioning and multi-worker execution.
//
// Example usage:
//
//	w := dataflow.NewWorker(0, 1, dataflow.Options{})
//	scope := dataflow.NewDataflow[lattice.Time](w, "example")
//	input, stream := dataflow.NewInput[lattice.Time, string](scope, "input")
//	probe := dataflow.NewProbe(stream)
//	input.Send("hello")
//	input.AdvanceTo(1)
//	w.StepWhile(func() bool { return probe.LessThan(1) })
package dataflow
