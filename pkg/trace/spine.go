package trace

import (
	"cmp"
	"slices"

	"github.com/go-logr/logr"

	"github.com/l7mp/ddflow/pkg/lattice"
)

// DefaultMergeFuel is the merge work performed per insert when Options.MergeFuel is not set.
const DefaultMergeFuel = 1024

// Options configures a Spine.
type Options struct {
	// MergeFuel is the amount of merge work, in updates, performed on each insert.
	MergeFuel int
	Logger    logr.Logger
}

var _ Trace[int, int, lattice.Time, int] = &Spine[int, int, lattice.Time, int]{}

// Spine is a trace made of a contiguous sequence of batches of one Kind. Adjacent batches are
// merged incrementally, never across a boundary the distinguish frontier protects.
type Spine[K, V cmp.Ordered, T lattice.Lattice[T], R Diff] struct {
	kind        Kind[K, V, T, R]
	id          BatchIdentifier
	segments    []*segment[K, V, T, R]
	upper       lattice.Antichain[T]
	advance     lattice.Antichain[T]
	distinguish lattice.Antichain[T]
	fuel        int
	closed      bool
	log         logr.Logger
}

// segment is either a complete batch or an in-progress merge of two consecutive batches.
type segment[K, V cmp.Ordered, T lattice.Lattice[T], R Diff] struct {
	batch        Batch[K, V, T, R]
	older, newer Batch[K, V, T, R]
	merger       Merger[K, V, T, R]
}

func (s *segment[K, V, T, R]) merging() bool { return s.merger != nil }

func (s *segment[K, V, T, R]) batches() []Batch[K, V, T, R] {
	if s.merging() {
		return []Batch[K, V, T, R]{s.older, s.newer}
	}
	return []Batch[K, V, T, R]{s.batch}
}

// NewSpine creates an empty trace. All its frontiers start at the minimal time.
func NewSpine[K, V cmp.Ordered, T lattice.Lattice[T], R Diff](kind Kind[K, V, T, R], id BatchIdentifier, opts Options) *Spine[K, V, T, R] {
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	fuel := opts.MergeFuel
	if fuel <= 0 {
		fuel = DefaultMergeFuel
	}
	minimum := lattice.Minimum[T]()
	return &Spine[K, V, T, R]{
		kind:        kind,
		id:          id,
		upper:       lattice.Antichain[T]{minimum},
		advance:     lattice.Antichain[T]{minimum},
		distinguish: lattice.Antichain[T]{minimum},
		fuel:        fuel,
		log:         logger.WithName("spine").WithValues("id", id.String()),
	}
}

// Identifier returns the identifier of the batches of the trace.
func (s *Spine[K, V, T, R]) Identifier() BatchIdentifier { return s.id }

// Insert appends a batch and performs a bounded amount of merge work.
func (s *Spine[K, V, T, R]) Insert(batch Batch[K, V, T, R]) {
	if s.closed {
		Invariantf("Spine.Insert", "trace %s is closed", s.id)
	}
	if !lattice.Equal(batch.Lower(), s.upper) {
		Invariantf("Spine.Insert", "batch lower %s does not match trace upper %s",
			batch.Lower(), s.upper)
	}

	s.log.V(2).Info("insert", "description", batch.Description().String(), "len", batch.Len())

	s.segments = append(s.segments, &segment[K, V, T, R]{batch: batch})
	s.upper = batch.Upper().Clone()
	s.consider()
	s.Work(s.fuel)
}

// Close inserts an empty batch with an empty upper. Closing a closed trace is a no-op.
func (s *Spine[K, V, T, R]) Close() {
	if s.closed {
		return
	}
	s.Insert(s.kind.Empty(s.id, s.upper, nil, s.upper))
	s.closed = true
	s.log.V(1).Info("closed")
}

// Closed reports whether the trace has been closed.
func (s *Spine[K, V, T, R]) Closed() bool { return s.closed }

func (s *Spine[K, V, T, R]) Upper() lattice.Antichain[T] { return s.upper }

func (s *Spine[K, V, T, R]) AdvanceBy(frontier []T) {
	s.advance = lattice.Antichain[T](frontier).Clone()
	s.log.V(4).Info("advance", "frontier", s.advance.String())
}

func (s *Spine[K, V, T, R]) AdvanceFrontier() lattice.Antichain[T] { return s.advance }

func (s *Spine[K, V, T, R]) DistinguishSince(frontier []T) {
	s.distinguish = lattice.Antichain[T](frontier).Clone()
	s.log.V(4).Info("distinguish", "frontier", s.distinguish.String())
	s.consider()
}

func (s *Spine[K, V, T, R]) DistinguishFrontier() lattice.Antichain[T] { return s.distinguish }

// CursorThrough returns a cursor through a batch boundary. The empty frontier and the trace
// upper both select every batch.
func (s *Spine[K, V, T, R]) CursorThrough(upper []T) (Cursor[K, V, T, R], bool) {
	all := len(upper) == 0 || lattice.Equal(upper, s.upper)
	var cursors []Cursor[K, V, T, R]
	for _, seg := range s.segments {
		for _, b := range seg.batches() {
			cursors = append(cursors, b.Cursor())
			if !all && lattice.Equal(b.Upper(), upper) {
				return NewCursorList(cursors), true
			}
		}
	}
	if all {
		return NewCursorList(cursors), true
	}
	return nil, false
}

func (s *Spine[K, V, T, R]) Cursor() Cursor[K, V, T, R] {
	c, ok := s.CursorThrough(nil)
	if !ok {
		Invariantf("Spine.Cursor", "no cursor through the trace")
	}
	return c
}

func (s *Spine[K, V, T, R]) MapBatches(f func(BatchReader[K, V, T, R])) {
	for _, seg := range s.segments {
		for _, b := range seg.batches() {
			f(b)
		}
	}
}

// Len returns the number of updates held by the physical batches of the trace.
func (s *Spine[K, V, T, R]) Len() int {
	n := 0
	s.MapBatches(func(b BatchReader[K, V, T, R]) { n += b.Len() })
	return n
}

// Segment is a unit of the physical layout of a spine: a batch or a merge in progress.
type Segment[K, V cmp.Ordered, T lattice.Lattice[T], R Diff] struct {
	Batches []BatchReader[K, V, T, R]
	Merging bool
}

// Layout returns the physical layout of the trace, oldest segment first.
func (s *Spine[K, V, T, R]) Layout() []Segment[K, V, T, R] {
	layout := make([]Segment[K, V, T, R], 0, len(s.segments))
	for _, seg := range s.segments {
		l := Segment[K, V, T, R]{Merging: seg.merging()}
		for _, b := range seg.batches() {
			l.Batches = append(l.Batches, b)
		}
		layout = append(layout, l)
	}
	return layout
}

// Work feeds fuel to in-progress merges, oldest first, and reports whether any merge remains in
// progress.
func (s *Spine[K, V, T, R]) Work(fuel int) bool {
	for _, seg := range s.segments {
		if fuel <= 0 {
			break
		}
		if !seg.merging() {
			continue
		}
		if seg.merger.Work(s.advance, &fuel) == MergeDone {
			seg.batch = seg.merger.Done()
			seg.older, seg.newer, seg.merger = nil, nil, nil
			s.log.V(8).Info("merge complete", "description", seg.batch.Description().String(),
				"len", seg.batch.Len())
		}
	}
	s.consider()
	return s.Merging()
}

// Merging reports whether a merge is in progress.
func (s *Spine[K, V, T, R]) Merging() bool {
	return slices.ContainsFunc(s.segments, (*segment[K, V, T, R]).merging)
}

// mergeable reports whether a batch boundary may be merged away: the distinguish frontier must
// not be less or equal to it.
func (s *Spine[K, V, T, R]) mergeable(boundary []T) bool {
	return !s.distinguish.Precedes(boundary)
}

// consider starts merges of adjacent complete batches, newest first, where the older batch is at
// most twice as large as the newer one.
func (s *Spine[K, V, T, R]) consider() {
	for i := len(s.segments) - 1; i > 0; i-- {
		older, newer := s.segments[i-1], s.segments[i]
		if older.merging() || newer.merging() {
			continue
		}
		if older.batch.Len() > 2*newer.batch.Len() || !s.mergeable(newer.batch.Lower()) {
			continue
		}
		s.log.V(8).Info("merge start", "lower", older.batch.Lower().String(),
			"boundary", newer.batch.Lower().String(), "upper", newer.batch.Upper().String())
		merged := &segment[K, V, T, R]{
			older:  older.batch,
			newer:  newer.batch,
			merger: older.batch.BeginMerge(newer.batch),
		}
		s.segments = slices.Replace(s.segments, i-1, i+1, merged)
	}
}
