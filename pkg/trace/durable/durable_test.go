package durable

import (
	"errors"
	"os"
	"slices"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
	"github.com/l7mp/ddflow/pkg/trace/ord"
)

func TestDurable(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Durable Suite")
}

type update = trace.Update[string, int, lattice.Time, int]

var (
	testID = trace.NewBatchIdentifier([]int{3, 5, 2}, 12)
	kind   = ord.Kind[string, int, lattice.Time, int]{}
)

func at(ts ...lattice.Time) []lattice.Time { return append([]lattice.Time{}, ts...) }

func openStore() *Store {
	dir, err := os.MkdirTemp("", "ddflow-durable-")
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(os.RemoveAll, dir)
	store, err := Open(Options{Dir: dir, NoSync: true})
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(store.Close)
	return store
}

var _ = Describe("Artifact names", func() {
	It("should zero-pad durations", func() {
		d := 59087389724*time.Second + 5001000*time.Nanosecond
		Expect(DurationString(d)).To(Equal("00000000059087389724005001000"))
	})

	It("should name artifacts by identifier and time", func() {
		name := ArtifactName(testID, 3*time.Second+7)
		Expect(name).To(Equal("durability/3.5.2.12-00000000000000000003000000007.abom"))

		id, ts, err := ParseArtifactName(name)
		Expect(err).NotTo(HaveOccurred())
		Expect(id.Equal(testID)).To(BeTrue())
		Expect(ts).To(Equal(3*time.Second + 7))
	})

	It("should sort names chronologically", func() {
		durations := []time.Duration{10 * time.Second, 999999999, 2 * time.Second, 1, 10*time.Second + 1}
		names := make([]string, 0, len(durations))
		for _, d := range durations {
			names = append(names, ArtifactName(testID, d))
		}
		slices.Sort(names)
		slices.Sort(durations)
		for i, name := range names {
			_, ts, err := ParseArtifactName(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(ts).To(Equal(durations[i]))
		}
	})

	It("should reject malformed names", func() {
		for _, name := range []string{"foo", "durability/1.2-123.abom", "durability/x-00000000000000000003000000007.abom"} {
			_, _, err := ParseArtifactName(name)
			Expect(err).To(HaveOccurred(), "name %q", name)
		}
	})
})

var _ = Describe("Store", func() {
	var store *Store

	BeforeEach(func() {
		store = openStore()
	})

	It("should store and list artifacts by identifier", func() {
		other := trace.NewBatchIdentifier([]int{3, 5, 2}, 1)
		Expect(store.Put(ArtifactName(testID, 2), []byte("b"))).To(Succeed())
		Expect(store.Put(ArtifactName(testID, 1), []byte("a"))).To(Succeed())
		Expect(store.Put(ArtifactName(other, 1), []byte("c"))).To(Succeed())

		names, err := store.List(testID)
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(Equal([]string{ArtifactName(testID, 1), ArtifactName(testID, 2)}))

		data, err := store.Get(names[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("a")))

		Expect(store.Delete(testID)).To(Succeed())
		names, err = store.List(testID)
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(BeEmpty())
		names, err = store.List(other)
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(HaveLen(1))
	})

	It("should never overwrite an artifact", func() {
		name := ArtifactName(testID, 1)
		Expect(store.Put(name, []byte("a"))).To(Succeed())
		err := store.Put(name, []byte("b"))
		Expect(err).To(HaveOccurred())
		var serr *StoreError
		Expect(errors.As(err, &serr)).To(BeTrue())
		Expect(serr.Name).To(Equal(name))
	})

	It("should require a directory", func() {
		_, err := Open(Options{})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Persister", func() {
	var (
		store     *Store
		persister *Persister[string, int, lattice.Time, int]
	)

	BeforeEach(func() {
		store = openStore()
		fixed := time.Unix(1000, 0)
		persister = NewPersister(store, trace.Kind[string, int, lattice.Time, int](kind),
			PersisterOptions{Now: func() time.Time { return fixed }})
	})

	It("should round trip batches through the store", func() {
		b0 := ord.FromUpdates(testID, trace.NewDescription(at(0), at(2), at(0)), []update{
			{Key: "a", Val: 1, Time: 0, Diff: 1}, {Key: "b", Val: 2, Time: 1, Diff: -1},
		})
		b1 := ord.FromUpdates(testID, trace.NewDescription(at(2), at(5), at(0)), []update{
			{Key: "a", Val: 1, Time: 3, Diff: 2},
		})

		n0, err := persister.Persist(b0)
		Expect(err).NotTo(HaveOccurred())
		n1, err := persister.Persist(b1)
		Expect(err).NotTo(HaveOccurred())
		Expect(n0 < n1).To(BeTrue())

		restored := NewPersister(store, trace.Kind[string, int, lattice.Time, int](kind), PersisterOptions{})
		batches, err := restored.Reconstitute(testID)
		Expect(err).NotTo(HaveOccurred())
		Expect(batches).To(HaveLen(2))
		Expect(batches[0].Upper()).To(Equal(lattice.Antichain[lattice.Time]{2}))
		Expect(batches[1].Lower()).To(Equal(lattice.Antichain[lattice.Time]{2}))
		Expect(batches[1].Upper()).To(Equal(lattice.Antichain[lattice.Time]{5}))
		Expect(trace.Collect(batches[0].Cursor())).To(Equal(trace.Collect(b0.Cursor())))
		Expect(trace.Collect(batches[1].Cursor())).To(Equal(trace.Collect(b1.Cursor())))
	})

	It("should return nothing for unknown identifiers", func() {
		batches, err := persister.Reconstitute(trace.NewBatchIdentifier(nil, 99))
		Expect(err).NotTo(HaveOccurred())
		Expect(batches).To(BeEmpty())
	})

	It("should discard the batches of one identifier", func() {
		other := trace.NewBatchIdentifier([]int{7}, 1)
		_, err := persister.Persist(ord.FromUpdates(testID, trace.NewDescription(at(0), at(2), at(0)),
			[]update{{Key: "a", Val: 1, Time: 0, Diff: 1}}))
		Expect(err).NotTo(HaveOccurred())
		_, err = persister.Persist(ord.FromUpdates(other, trace.NewDescription(at(0), at(3), at(0)),
			[]update{{Key: "b", Val: 2, Time: 1, Diff: 1}}))
		Expect(err).NotTo(HaveOccurred())

		Expect(persister.Discard(testID)).To(Succeed())
		batches, err := persister.Reconstitute(testID)
		Expect(err).NotTo(HaveOccurred())
		Expect(batches).To(BeEmpty())
		batches, err = persister.Reconstitute(other)
		Expect(err).NotTo(HaveOccurred())
		Expect(batches).To(HaveLen(1))

		// the trace starts over at the minimal time
		_, err = persister.Persist(ord.FromUpdates(testID, trace.NewDescription(at(0), at(1), at(0)), []update{}))
		Expect(err).NotTo(HaveOccurred())
		batches, err = persister.Reconstitute(testID)
		Expect(err).NotTo(HaveOccurred())
		Expect(batches).To(HaveLen(1))
	})

	It("should refuse non-contiguous artifacts", func() {
		b := ord.FromUpdates(testID, trace.NewDescription(at(4), at(5), at(0)), []update{})
		_, err := persister.Persist(b)
		Expect(err).NotTo(HaveOccurred())
		_, err = persister.Reconstitute(testID)
		Expect(err).To(HaveOccurred())
	})
})
