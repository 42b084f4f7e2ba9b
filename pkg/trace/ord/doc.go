// Package ord is the default batch representation: updates are stored in sorted key, value and
// (time, diff) columns, cursors seek by binary search and merges proceed one key at a time,
// consuming one unit of fuel per update read.
package ord
