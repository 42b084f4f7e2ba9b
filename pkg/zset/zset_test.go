package zset_test

import (
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
	"github.com/l7mp/ddflow/pkg/trace/ord"
	"github.com/l7mp/ddflow/pkg/zset"
)

func TestZSet(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ZSet Suite")
}

type update = trace.Update[string, int, lattice.Time, int]

var _ = Describe("ZSet", func() {
	var z *zset.ZSet[string, int, int]

	BeforeEach(func() {
		z = zset.New[string, int, int]()
		z.Insert("a", 1, 2)
		z.Insert("b", 1, -1)
	})

	It("should drop elements that cancel", func() {
		z.Insert("a", 1, -2)
		Expect(z.Len()).To(Equal(1))
		Expect(z.Multiplicity("a", 1)).To(Equal(0))
		z.Insert("b", 1, 1)
		Expect(z.IsZero()).To(BeTrue())
		Expect(z.String()).To(Equal("∅"))
	})

	It("should add and subtract without mutating the operands", func() {
		other := zset.New[string, int, int]()
		other.Insert("a", 1, 1)
		other.Insert("c", 3, 1)

		sum := z.Add(other)
		Expect(sum.Entries()).To(Equal([]zset.Entry[string, int, int]{
			{Element: zset.Element[string, int]{Key: "a", Val: 1}, Multiplicity: 3},
			{Element: zset.Element[string, int]{Key: "b", Val: 1}, Multiplicity: -1},
			{Element: zset.Element[string, int]{Key: "c", Val: 3}, Multiplicity: 1},
		}))
		Expect(sum.Subtract(other).Equal(z)).To(BeTrue())
		Expect(z.Len()).To(Equal(2))
		Expect(z.Add(nil).Equal(z)).To(BeTrue())
	})

	It("should convert to set semantics", func() {
		d := z.Distinct()
		Expect(d.Len()).To(Equal(1))
		Expect(d.Multiplicity("a", 1)).To(Equal(1))
		Expect(z.Size()).To(Equal(2))
		Expect(z.Contains("a", 1)).To(BeTrue())
		Expect(z.Contains("b", 1)).To(BeFalse())
	})

	It("should report the first difference", func() {
		other := z.Copy()
		Expect(z.Diff(other)).To(Succeed())
		other.Insert("b", 1, 1)
		err := z.Diff(other)
		Expect(err).To(HaveOccurred())
		var zerr *zset.ZSetError
		Expect(errors.As(err, &zerr)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("(b, 1): -1 != 0"))
		Expect(z.Diff(nil)).To(HaveOccurred())
	})

	It("should list keys in order", func() {
		z.Insert("a", 2, 1)
		Expect(z.Keys()).To(Equal([]string{"a", "b"}))
		Expect(z.String()).To(Equal("{(a, 1)×2, (a, 2)×1, (b, 1)×-1}"))
	})

	It("should accumulate updates as of a time", func() {
		updates := []update{
			{Key: "x", Val: 1, Time: 1, Diff: 1},
			{Key: "x", Val: 1, Time: 3, Diff: -1},
			{Key: "y", Val: 2, Time: 2, Diff: 1},
		}
		Expect(zset.FromUpdates(updates, lattice.Time(2)).Entries()).To(HaveLen(2))
		at3 := zset.FromUpdates(updates, lattice.Time(3))
		Expect(at3.Entries()).To(Equal([]zset.Entry[string, int, int]{
			{Element: zset.Element[string, int]{Key: "y", Val: 2}, Multiplicity: 1},
		}))

		id := trace.NewBatchIdentifier([]int{0}, 0)
		batcher := ord.Kind[string, int, lattice.Time, int]{}.NewBatcher(id)
		batcher.PushBatch(append([]update{}, updates...))
		batch := batcher.Seal([]lattice.Time{4})
		Expect(zset.FromCursor(batch.Cursor(), lattice.Time(3)).Equal(at3)).To(BeTrue())
		Expect(zset.FromCursor(batch.Cursor(), lattice.Time(0)).IsZero()).To(BeTrue())

		// a cursor that was already walked is rewound
		c := batch.Cursor()
		trace.Collect(c)
		Expect(c.KeyValid()).To(BeFalse())
		Expect(zset.FromCursor(c, lattice.Time(3)).Equal(at3)).To(BeTrue())
	})
})
