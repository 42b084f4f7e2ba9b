package trace_test

import (
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

func TestTrace(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Trace Suite")
}

type update = trace.Update[string, string, lattice.Time, int]

var _ = Describe("BatchIdentifier", func() {
	It("should format and parse", func() {
		id := trace.NewBatchIdentifier([]int{3, 5, 2}, 12)
		Expect(id.String()).To(Equal("3.5.2.12"))

		parsed, err := trace.ParseBatchIdentifier("3.5.2.12")
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed).To(Equal(id))
		Expect(parsed.Equal(id)).To(BeTrue())
	})

	It("should round trip identifiers without an address", func() {
		id := trace.NewBatchIdentifier(nil, 7)
		parsed, err := trace.ParseBatchIdentifier(id.String())
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed.Equal(id)).To(BeTrue())
	})

	It("should reject malformed input", func() {
		for _, s := range []string{"", "1..2", "a.1", "1.-2", "3.5."} {
			_, err := trace.ParseBatchIdentifier(s)
			Expect(err).To(HaveOccurred(), "input %q", s)
			var perr *trace.ParseError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Input).To(Equal(s))
		}
	})

	It("should refuse negative components", func() {
		invariant := PanicWith(BeAssignableToTypeOf(&trace.InvariantError{}))
		Expect(func() { trace.NewBatchIdentifier([]int{1, -2}, 0) }).To(invariant)
		Expect(func() { trace.NewBatchIdentifier(nil, -1) }).To(invariant)
		Expect(func() { trace.NewBatchIdentifier([]int{0}, 0) }).NotTo(Panic())
	})
})

var _ = Describe("Consolidate", func() {
	type pair = trace.Pair[string, int]

	It("should sum diffs and drop zeros", func() {
		v := []pair{{"a", 3}, {"b", -2}, {"a", -3}, {"a", 5}}
		Expect(trace.Consolidate(v, 0)).To(Equal([]pair{{"a", 5}, {"b", -2}}))
	})

	It("should be idempotent", func() {
		v := []pair{{"c", 1}, {"a", 1}, {"b", 2}, {"a", -1}, {"c", 1}, {"b", 0}}
		once := trace.Consolidate(v, 0)
		Expect(once).To(Equal([]pair{{"b", 2}, {"c", 2}}))
		twice := trace.Consolidate(append([]pair{}, once...), 0)
		Expect(twice).To(Equal(once))
	})

	It("should only touch the suffix after the offset", func() {
		v := []pair{{"z", 1}, {"b", 1}, {"a", 1}, {"b", -1}}
		Expect(trace.Consolidate(v, 1)).To(Equal([]pair{{"z", 1}, {"a", 1}}))
	})

	It("should consolidate with a custom order", func() {
		v := []pair{{"a", 1}, {"bb", 1}, {"cc", 1}}
		byLen := func(a, b string) int { return len(a) - len(b) }
		Expect(trace.ConsolidateFunc(v, 0, byLen)).To(Equal([]pair{{"a", 1}, {"bb", 2}}))
	})

	It("should consolidate updates by key, value and time", func() {
		us := []update{
			{Key: "k", Val: "x", Time: 2, Diff: 1},
			{Key: "k", Val: "x", Time: 1, Diff: 1},
			{Key: "k", Val: "x", Time: 2, Diff: -1},
			{Key: "j", Val: "y", Time: 1, Diff: 4},
		}
		Expect(trace.ConsolidateUpdates(us, 0)).To(Equal([]update{
			{Key: "j", Val: "y", Time: 1, Diff: 4},
			{Key: "k", Val: "x", Time: 1, Diff: 1},
		}))
	})
})

var _ = Describe("InvariantError", func() {
	It("should panic with the operation and message", func() {
		defer func() {
			r := recover()
			err, ok := r.(*trace.InvariantError)
			Expect(ok).To(BeTrue())
			Expect(err.Op).To(Equal("test"))
			Expect(err.Error()).To(Equal("invariant violation in test: bad 1"))
		}()
		trace.Invariantf("test", "bad %d", 1)
	})
})
