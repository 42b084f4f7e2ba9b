// Package wrappers provides read-only views of traces with reinterpreted times.
//
// Enter lifts a trace into a nested, finer time domain through a lattice.Refinement. Freeze maps
// every update time through a TimeFilter, suppressing the updates the filter rejects. Neither
// wrapper copies or rewrites batch contents; only navigation is affected.
package wrappers
