package lattice_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/l7mp/ddflow/pkg/lattice"
)

func TestLattice(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Lattice Suite")
}

type pair = lattice.Product[lattice.Time, lattice.Time]

func p(o, i uint64) pair { return lattice.NewProduct(lattice.Time(o), lattice.Time(i)) }

var _ = Describe("Lattice", func() {
	Describe("Time", func() {
		It("should be totally ordered", func() {
			Expect(lattice.Time(1).LessEqual(2)).To(BeTrue())
			Expect(lattice.Time(2).LessEqual(1)).To(BeFalse())
			Expect(lattice.Time(3).Join(5)).To(Equal(lattice.Time(5)))
			Expect(lattice.Time(3).Meet(5)).To(Equal(lattice.Time(3)))
			Expect(lattice.Minimum[lattice.Time]()).To(Equal(lattice.Time(0)))
			Expect(lattice.LessThan(lattice.Time(1), lattice.Time(1))).To(BeFalse())
		})
	})

	Describe("Product", func() {
		It("should be partially ordered", func() {
			Expect(p(1, 1).LessEqual(p(2, 1))).To(BeTrue())
			Expect(p(1, 2).LessEqual(p(2, 1))).To(BeFalse())
			Expect(p(2, 1).LessEqual(p(1, 2))).To(BeFalse())
			Expect(p(1, 2).Join(p(2, 1))).To(Equal(p(2, 2)))
			Expect(p(1, 2).Meet(p(2, 1))).To(Equal(p(1, 1)))
			Expect(p(1, 2).String()).To(Equal("(1, 2)"))
		})

		It("should extend the partial order with Cmp", func() {
			Expect(p(1, 5).Cmp(p(2, 0))).To(Equal(-1))
			Expect(p(1, 5).Cmp(p(1, 5))).To(Equal(0))
		})
	})

	Describe("AdvanceBy", func() {
		It("should leave times unchanged on an empty frontier", func() {
			Expect(lattice.AdvanceBy(lattice.Time(3), nil)).To(Equal(lattice.Time(3)))
		})

		It("should advance totally ordered times to the frontier", func() {
			Expect(lattice.AdvanceBy(lattice.Time(3), []lattice.Time{5})).To(Equal(lattice.Time(5)))
			Expect(lattice.AdvanceBy(lattice.Time(7), []lattice.Time{5})).To(Equal(lattice.Time(7)))
		})

		It("should take the meet of joins for partial orders", func() {
			frontier := []pair{p(0, 3), p(3, 0)}
			// (1,1) v (0,3) = (1,3), (1,1) v (3,0) = (3,1), meet = (1,1)
			Expect(lattice.AdvanceBy(p(1, 1), frontier)).To(Equal(p(1, 1)))
			// (0,0) v (0,3) = (0,3), (0,0) v (3,0) = (3,0), meet = (0,0)
			Expect(lattice.AdvanceBy(p(0, 0), frontier)).To(Equal(p(0, 0)))
			Expect(lattice.AdvanceBy(p(0, 0), []pair{p(2, 2)})).To(Equal(p(2, 2)))
		})

		It("should preserve comparisons with times beyond the frontier", func() {
			frontier := []pair{p(2, 0), p(0, 2)}
			times := []pair{p(0, 0), p(1, 0), p(0, 1), p(1, 1), p(3, 0)}
			beyond := []pair{p(2, 0), p(0, 2), p(2, 2), p(3, 1), p(4, 4)}
			for _, t := range times {
				a := lattice.AdvanceBy(t, frontier)
				for _, u := range beyond {
					Expect(a.LessEqual(u)).To(Equal(t.LessEqual(u)), "t=%s u=%s", t, u)
				}
			}
		})
	})

	Describe("Antichain", func() {
		It("should keep only minimal elements", func() {
			a := lattice.NewAntichain(p(2, 2), p(1, 3), p(1, 1))
			Expect(a.Equal([]pair{p(1, 1)})).To(BeTrue())

			b := lattice.NewAntichain(p(2, 0), p(0, 2), p(3, 3))
			Expect(b).To(HaveLen(2))
			Expect(b.String()).To(Equal("[(0, 2), (2, 0)]"))
		})

		It("should not alias the receiver on insert", func() {
			a := lattice.NewAntichain(p(2, 0), p(0, 2))
			b := a.Insert(p(0, 0))
			Expect(b.Equal([]pair{p(0, 0)})).To(BeTrue())
			Expect(a.Equal([]pair{p(2, 0), p(0, 2)})).To(BeTrue())
		})

		It("should compare frontiers", func() {
			a := lattice.NewAntichain(lattice.Time(1))
			Expect(a.LessEqual(1)).To(BeTrue())
			Expect(a.LessThan(1)).To(BeFalse())
			Expect(a.LessEqual(0)).To(BeFalse())
			Expect(lattice.Precedes([]lattice.Time{1}, []lattice.Time{3})).To(BeTrue())
			Expect(lattice.Precedes([]lattice.Time{3}, []lattice.Time{1})).To(BeFalse())
			Expect(lattice.Precedes([]lattice.Time{3}, nil)).To(BeTrue())
			Expect(lattice.Precedes(nil, []lattice.Time{1})).To(BeFalse())
		})

		It("should compute the meet of frontiers", func() {
			m := lattice.Meet([]pair{p(2, 0)}, []pair{p(0, 2)}, []pair{p(3, 3)})
			Expect(m.Equal([]pair{p(2, 0), p(0, 2)})).To(BeTrue())
			Expect(lattice.Meet[lattice.Time]()).To(BeEmpty())
		})
	})

	Describe("MutableAntichain", func() {
		It("should track the lower envelope of held times", func() {
			m := lattice.NewMutableAntichain[lattice.Time]()
			Expect(m.IsEmpty()).To(BeTrue())
			m.Update(3, 1)
			m.Update(5, 2)
			Expect(m.Frontier().Equal([]lattice.Time{3})).To(BeTrue())
			m.Update(3, -1)
			Expect(m.Frontier().Equal([]lattice.Time{5})).To(BeTrue())
			m.Update(5, -1)
			Expect(m.Count(5)).To(Equal(1))
			m.Update(5, -1)
			Expect(m.IsEmpty()).To(BeTrue())
			Expect(m.Frontier()).To(BeEmpty())
		})

		It("should replace holds", func() {
			m := lattice.NewMutableAntichainWith[lattice.Time](0)
			m.Replace([]lattice.Time{0}, []lattice.Time{4})
			Expect(m.Frontier().Equal([]lattice.Time{4})).To(BeTrue())
		})

		It("should panic on negative counts", func() {
			m := lattice.NewMutableAntichain[lattice.Time]()
			Expect(func() { m.Update(1, -1) }).To(Panic())
		})
	})

	Describe("Refinement", func() {
		It("should embed outer times at the inner minimum", func() {
			r := lattice.ProductRefinement[lattice.Time, lattice.Time]{}
			Expect(r.ToInner(3)).To(Equal(p(3, 0)))
			Expect(r.ToOuter(p(3, 7))).To(Equal(lattice.Time(3)))
			Expect(lattice.ToInnerFrontier[lattice.Time, pair](r, []lattice.Time{2}).Equal([]pair{p(2, 0)})).To(BeTrue())
			Expect(lattice.ToOuterFrontier[lattice.Time, pair](r, []pair{p(2, 5), p(3, 0)}).Equal([]lattice.Time{2})).To(BeTrue())
		})
	})
})
