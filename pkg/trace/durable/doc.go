// Package durable persists sealed batches and reconstitutes them after a restart.
//
// Every artifact is named durability/{batch identifier}-{seconds}{nanos}.abom, with the seconds
// zero-padded to 20 digits and the nanoseconds to 9, so that the lexicographic order of the names
// of one identifier is their chronological order. Artifacts are kept in a Pebble database keyed by
// their name and encoded as JSON.
package durable
