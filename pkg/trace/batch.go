package trace

import (
	"cmp"

	"github.com/l7mp/ddflow/pkg/lattice"
)

// BatchReader is read access to an immutable batch of updates. Wrapped views of a batch (e.g.,
// with remapped times) are batch readers but not batches.
type BatchReader[K, V cmp.Ordered, T lattice.Lattice[T], R Diff] interface {
	// Cursor acquires a cursor over the batch contents.
	Cursor() Cursor[K, V, T, R]
	// Len is the number of updates in the batch.
	Len() int
	Description() Description[T]
	Identifier() BatchIdentifier
	// Lower is a frontier all update times are greater or equal to.
	Lower() lattice.Antichain[T]
	// Upper is a frontier no update time is greater or equal to.
	Upper() lattice.Antichain[T]
}

// Batch is an immutable collection of updates of one representation.
type Batch[K, V cmp.Ordered, T lattice.Lattice[T], R Diff] interface {
	BatchReader[K, V, T, R]
	// BeginMerge initiates the merge of the batch with the batch that immediately follows it.
	// It panics if the upper of the receiver differs from the lower of other.
	BeginMerge(other Batch[K, V, T, R]) Merger[K, V, T, R]
	// AdvanceBy returns a batch whose update times are advanced by the frontier and
	// consolidated.
	AdvanceBy(frontier []T) Batch[K, V, T, R]
}

// Batcher assembles batches from unordered updates.
type Batcher[K, V cmp.Ordered, T lattice.Lattice[T], R Diff] interface {
	// PushBatch adds updates to the batcher. The slice may be reused by the batcher.
	PushBatch(updates []Update[K, V, T, R])
	// Seal extracts all pending updates whose time is not greater or equal to any element of
	// upper into a batch covering [Lower(), upper).
	Seal(upper []T) Batch[K, V, T, R]
	// Lower is the upper frontier of the last sealed batch.
	Lower() lattice.Antichain[T]
	// Frontier is the lower envelope of the times of the pending updates.
	Frontier() lattice.Antichain[T]
}

// Builder assembles batches from updates pushed in (key, value, time) order.
type Builder[K, V cmp.Ordered, T lattice.Lattice[T], R Diff] interface {
	Push(update Update[K, V, T, R])
	Done(lower, upper, since []T) Batch[K, V, T, R]
}

// MergeStatus reports the progress of a merge.
type MergeStatus int

const (
	// MergeInProgress means the merge ran out of fuel.
	MergeInProgress MergeStatus = iota
	// MergeDone means the merge is complete and the merged batch is available.
	MergeDone
)

func (s MergeStatus) String() string {
	if s == MergeDone {
		return "done"
	}
	return "in-progress"
}

// Merger is a resumable merge of two consecutive batches.
type Merger[K, V cmp.Ordered, T lattice.Lattice[T], R Diff] interface {
	// Work performs merge work bounded by fuel, decrementing fuel by the amount of work done,
	// and advances the merged times by the frontier. Work is complete once it returns
	// MergeDone; the remaining fuel is then non-negative.
	Work(frontier []T, fuel *int) MergeStatus
	// Done returns the merged batch. It panics if the merge is not complete.
	Done() Batch[K, V, T, R]
}

// Kind bundles the types of one batch representation.
type Kind[K, V cmp.Ordered, T lattice.Lattice[T], R Diff] interface {
	// Name is a short human readable name of the representation.
	Name() string
	NewBatcher(id BatchIdentifier) Batcher[K, V, T, R]
	// NewBatcherWithLower creates a batcher whose first sealed batch starts at lower.
	NewBatcherWithLower(id BatchIdentifier, lower []T) Batcher[K, V, T, R]
	NewBuilder(id BatchIdentifier) Builder[K, V, T, R]
	// Empty returns a batch with no updates.
	Empty(id BatchIdentifier, lower, upper, since []T) Batch[K, V, T, R]
}
