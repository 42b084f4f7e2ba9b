package dataflow

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Hash returns the 64 bit xxhash of a key.
func Hash[K cmp.Ordered](key K) uint64 {
	var buf [8]byte
	switch k := any(key).(type) {
	case string:
		return xxhash.Sum64String(k)
	case int:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
	case int8:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
	case int16:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
	case int32:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
	case int64:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
	case uint:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
	case uint8:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
	case uint16:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
	case uint32:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
	case uint64:
		binary.LittleEndian.PutUint64(buf[:], k)
	case uintptr:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
	case float32:
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(float64(k)))
	case float64:
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(k))
	default:
		// named types with an ordered underlying type
		return xxhash.Sum64String(fmt.Sprint(key))
	}
	return xxhash.Sum64(buf[:])
}

// Partition returns the index of the worker among peers responsible for a key.
func Partition[K cmp.Ordered](key K, peers int) int {
	if peers <= 1 {
		return 0
	}
	return int(Hash(key) % uint64(peers))
}

// IsLocal reports whether a key is owned by a worker.
func IsLocal[K cmp.Ordered](w *Worker, key K) bool {
	return Partition(key, w.Peers()) == w.Index()
}
