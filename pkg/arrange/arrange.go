package arrange

import (
	"cmp"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/l7mp/ddflow/pkg/dataflow"
	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
	"github.com/l7mp/ddflow/pkg/trace/durable"
	"github.com/l7mp/ddflow/pkg/trace/ord"
)

// Options configures the Arrange operator.
type Options[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	// Name is the operator name. Defaults to "Arrange".
	Name string
	// Kind is the batch representation. Defaults to ord batches.
	Kind trace.Kind[K, V, T, R]
	// MergeFuel is the merge work performed per insert, see trace.Options.
	MergeFuel int
	// Persister, if set, receives every sealed batch. Batches previously persisted under the
	// identifier of the operator are recovered into the trace when the operator is built.
	Persister *durable.Persister[K, V, T, R]
	// Discard drops the batches previously persisted under the identifier of the operator instead
	// of recovering them.
	Discard bool
	Logger  logr.Logger
}

// Unit is the value type of arrangements of keys only.
type Unit uint8

// Arrange builds an operator that maintains a trace of a stream of updates. The stream must be
// partitioned by key among workers, see dataflow.Partition. An error is only returned when
// persisted batches cannot be recovered; the dataflow must then be discarded.
func Arrange[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](updates dataflow.Stream[T, trace.Update[K, V, T, R]], opts Options[K, V, T, R]) (*Arranged[K, V, T, R], error) {
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	name := opts.Name
	if name == "" {
		name = "Arrange"
	}
	kind := opts.Kind
	if kind == nil {
		kind = ord.Kind[K, V, T, R]{}
	}

	var (
		agent *TraceAgent[K, V, T, R]
		err   error
	)

	stream := dataflow.Unary(updates, name, func(c *dataflow.Capability[T], info dataflow.OperatorInfo) func(*dataflow.InputPort[T, trace.Update[K, V, T, R]], *dataflow.OutputPort[T, trace.BatchReader[K, V, T, R]]) {
		c.Drop()

		// batches are named by operator address and worker
		id := trace.NewBatchIdentifier(info.Address, info.Worker)
		log := logger.WithName("arrange").WithValues("operator", name, "id", id.String())
		spine := trace.NewSpine(kind, id, trace.Options{MergeFuel: opts.MergeFuel, Logger: log})
		var writer *TraceWriter[K, V, T, R]
		agent, writer = NewTraceAgent[K, V, T, R](spine, log)

		batcher := kind.NewBatcher(id)
		switch {
		case opts.Persister != nil && opts.Discard:
			err = opts.Persister.Discard(id)
		case opts.Persister != nil:
			var recovered []trace.Batch[K, V, T, R]
			recovered, err = opts.Persister.Reconstitute(id)
			if n := len(recovered); err == nil && n > 0 {
				upper := recovered[n-1].Upper()
				batcher = kind.NewBatcherWithLower(id, upper)
				minimum := lattice.Minimum[T]()
				for _, b := range recovered {
					writer.Seal([]T{minimum}, &Sealed[K, V, T, R]{Time: minimum, Batch: b})
				}
				writer.Seal(upper, nil)
				log.V(1).Info("recovered trace", "batches", n, "upper", upper.String())
			}
		}

		var caps capabilities[T]
		return func(in *dataflow.InputPort[T, trace.Update[K, V, T, R]], out *dataflow.OutputPort[T, trace.BatchReader[K, V, T, R]]) {
			in.ForEach(func(ic *dataflow.InputCapability[T], data []trace.Update[K, V, T, R]) {
				caps = caps.insert(ic.Retain())
				batcher.PushBatch(data)
			})

			frontier := in.Frontier()
			ready := false
			for _, held := range caps {
				if !frontier.LessEqual(held.Time()) {
					ready = true
					break
				}
			}

			if ready {
				for i, held := range caps {
					if frontier.LessEqual(held.Time()) {
						continue
					}

					// the batch may not reach past the input frontier or the capabilities still
					// to be retired after this one
					upper := frontier.Clone()
					for _, later := range caps[i+1:] {
						upper = upper.Insert(later.Time())
					}

					batch := batcher.Seal(upper)
					writer.Seal(upper, &Sealed[K, V, T, R]{Time: held.Time(), Batch: batch})
					if opts.Persister != nil {
						if _, perr := opts.Persister.Persist(batch); perr != nil {
							panic(fmt.Errorf("arrange %s: failed to persist batch: %w", id, perr))
						}
					}
					out.Session(held).Give(batch)
					log.V(2).Info("sealed batch", "time", held.Time().String(),
						"description", batch.Description().String(), "len", batch.Len())
				}

				next := make(capabilities[T], 0, len(caps))
				for _, t := range batcher.Frontier() {
					held := caps.find(t)
					if held == nil {
						trace.Invariantf("arrange", "no capability for pending time %s in %s", t, caps)
					}
					next = next.insert(held.Delayed(t))
				}
				caps.drop()
				caps = next
				log.V(4).Info("capabilities", "held", caps.times().String(), "input", frontier.String())
			}

			// a recovered trace is ahead of the input until the input passes the recovered upper
			if writer.Frontier().Precedes(frontier) {
				writer.Seal(frontier, nil)
			}
		}
	})

	if err != nil {
		return nil, fmt.Errorf("arrange %s: %w", name, err)
	}
	return newArranged(stream, agent), nil
}

// ArrangeBySelf arranges a stream of keys.
func ArrangeBySelf[K cmp.Ordered, T lattice.Lattice[T], R trace.Diff](keys dataflow.Stream[T, trace.Update[K, Unit, T, R]], opts Options[K, Unit, T, R]) (*Arranged[K, Unit, T, R], error) {
	if opts.Name == "" {
		opts.Name = "ArrangeBySelf"
	}
	return Arrange(keys, opts)
}
