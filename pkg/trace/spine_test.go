package trace_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
	"github.com/l7mp/ddflow/pkg/trace/ord"
)

var testID = trace.NewBatchIdentifier([]int{0, 1}, 0)

func frontier(ts ...uint64) []lattice.Time {
	f := []lattice.Time{}
	for _, t := range ts {
		f = append(f, lattice.Time(t))
	}
	return f
}

func newBatch(lower, upper uint64, updates ...update) trace.Batch[string, string, lattice.Time, int] {
	desc := trace.NewDescription(frontier(lower), frontier(upper), frontier(0))
	return ord.FromUpdates(testID, desc, updates)
}

func newSpine(fuel int) *trace.Spine[string, string, lattice.Time, int] {
	return trace.NewSpine[string, string, lattice.Time, int](ord.Kind[string, string, lattice.Time, int]{},
		testID, trace.Options{MergeFuel: fuel})
}

var _ = Describe("Spine", func() {
	var spine *trace.Spine[string, string, lattice.Time, int]

	BeforeEach(func() {
		spine = newSpine(0)
	})

	It("should start empty at the minimal time", func() {
		Expect(spine.Upper()).To(Equal(lattice.Antichain[lattice.Time]{0}))
		Expect(spine.AdvanceFrontier()).To(Equal(lattice.Antichain[lattice.Time]{0}))
		Expect(spine.DistinguishFrontier()).To(Equal(lattice.Antichain[lattice.Time]{0}))
		Expect(trace.Collect(spine.Cursor())).To(BeEmpty())
	})

	It("should accept contiguous batches", func() {
		spine.Insert(newBatch(0, 1, update{"a", "x", 0, 1}))
		spine.Insert(newBatch(1, 2, update{"b", "y", 1, 1}))
		Expect(spine.Upper()).To(Equal(lattice.Antichain[lattice.Time]{2}))

		var uppers []lattice.Antichain[lattice.Time]
		spine.MapBatches(func(b trace.BatchReader[string, string, lattice.Time, int]) {
			uppers = append(uppers, b.Upper())
		})
		Expect(uppers).To(Equal([]lattice.Antichain[lattice.Time]{{1}, {2}}))
	})

	It("should panic on a non-contiguous insert", func() {
		spine.Insert(newBatch(0, 1))
		Expect(func() { spine.Insert(newBatch(2, 3)) }).To(
			PanicWith(BeAssignableToTypeOf(&trace.InvariantError{})))
	})

	It("should provide cursors through batch boundaries only", func() {
		spine.Insert(newBatch(0, 1, update{"a", "x", 0, 1}))
		spine.Insert(newBatch(1, 2, update{"a", "x", 1, 1}, update{"b", "y", 1, 2}))

		c, ok := spine.CursorThrough(frontier(1))
		Expect(ok).To(BeTrue())
		Expect(trace.Collect(c)).To(Equal([]update{{"a", "x", 0, 1}}))

		c, ok = spine.CursorThrough(frontier(2))
		Expect(ok).To(BeTrue())
		Expect(trace.Collect(c)).To(HaveLen(3))

		_, ok = spine.CursorThrough(frontier(5))
		Expect(ok).To(BeFalse())
	})

	It("should select every batch through the empty frontier of an open trace", func() {
		spine.Insert(newBatch(0, 1, update{"a", "x", 0, 1}))
		spine.Insert(newBatch(1, 2, update{"b", "y", 1, 2}))
		Expect(spine.Closed()).To(BeFalse())

		c, ok := spine.CursorThrough(nil)
		Expect(ok).To(BeTrue())
		Expect(trace.Collect(c)).To(Equal([]update{{"a", "x", 0, 1}, {"b", "y", 1, 2}}))
		Expect(trace.Collect(spine.Cursor())).To(Equal(trace.Collect(c)))
	})

	It("should not merge boundaries protected by the distinguish frontier", func() {
		spine.Insert(newBatch(0, 1, update{"a", "x", 0, 1}))
		spine.Insert(newBatch(1, 2, update{"a", "x", 1, 1}))
		Expect(spine.Merging()).To(BeFalse())
		Expect(spine.Layout()).To(HaveLen(2))

		spine.DistinguishSince(frontier(3))
		spine.Work(trace.DefaultMergeFuel)
		Expect(spine.Layout()).To(HaveLen(1))
		_, ok := spine.CursorThrough(frontier(1))
		Expect(ok).To(BeFalse())
	})

	It("should merge incrementally with bounded fuel", func() {
		spine = newSpine(1)
		spine.DistinguishSince(nil)
		spine.Insert(newBatch(0, 1, update{"a", "x", 0, 1}, update{"b", "x", 0, 1}, update{"c", "x", 0, 1}))
		spine.Insert(newBatch(1, 2, update{"b", "x", 1, 1}, update{"c", "x", 1, -1}, update{"d", "x", 1, 1}))
		Expect(spine.Merging()).To(BeTrue())

		expected := []update{
			{"a", "x", 0, 1}, {"b", "x", 0, 1}, {"b", "x", 1, 1},
			{"c", "x", 0, 1}, {"c", "x", 1, -1}, {"d", "x", 1, 1},
		}
		Expect(trace.Collect(spine.Cursor())).To(Equal(expected))

		steps := 0
		for spine.Work(1) {
			steps++
			Expect(trace.Collect(spine.Cursor())).To(Equal(expected))
		}
		Expect(steps).To(BeNumerically(">", 1))

		layout := spine.Layout()
		Expect(layout).To(HaveLen(1))
		Expect(layout[0].Merging).To(BeFalse())
		Expect(layout[0].Batches[0].Lower()).To(Equal(lattice.Antichain[lattice.Time]{0}))
		Expect(layout[0].Batches[0].Upper()).To(Equal(lattice.Antichain[lattice.Time]{2}))
		Expect(trace.Collect(spine.Cursor())).To(Equal(expected))
	})

	It("should advance times while merging", func() {
		spine.DistinguishSince(nil)
		spine.AdvanceBy(frontier(2))
		spine.Insert(newBatch(0, 1, update{"a", "x", 0, 1}, update{"c", "x", 0, 1}))
		spine.Insert(newBatch(1, 2, update{"a", "x", 1, 1}, update{"c", "x", 1, -1}))
		Expect(spine.Merging()).To(BeFalse())
		Expect(trace.Collect(spine.Cursor())).To(Equal([]update{{"a", "x", 2, 2}}))
		Expect(spine.Len()).To(Equal(1))
	})

	It("should close with an empty upper", func() {
		spine.Insert(newBatch(0, 1, update{"a", "x", 0, 1}))
		spine.Close()
		Expect(spine.Closed()).To(BeTrue())
		Expect(spine.Upper()).To(BeEmpty())

		c, ok := spine.CursorThrough(nil)
		Expect(ok).To(BeTrue())
		Expect(trace.Collect(c)).To(Equal([]update{{"a", "x", 0, 1}}))

		Expect(func() { spine.Insert(newBatch(1, 2)) }).To(
			PanicWith(BeAssignableToTypeOf(&trace.InvariantError{})))
	})
})
