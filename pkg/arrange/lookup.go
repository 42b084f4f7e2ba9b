package arrange

import (
	"cmp"
	"slices"

	"github.com/go-logr/logr"

	"github.com/l7mp/ddflow/pkg/dataflow"
	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

// Query asks for the contents of a key as of a time.
type Query[K cmp.Ordered, T lattice.Lattice[T]] struct {
	Key  K
	Time T
}

type timedVal[V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	time T
	val  V
	diff R
}

// LookupOptions configures the Lookup operator.
type LookupOptions struct {
	// Name is the operator name. Defaults to "TraceQuery".
	Name   string
	Logger logr.Logger
}

// Lookup answers queries against an arrangement. For each query (key, time) it reports the
// updates (key, value, time, diff) whose diff accumulated over all times less or equal to the
// query time is not zero. A query is answered once the arrangement is complete through its time.
// Queries must be partitioned by key like the arrangement.
func Lookup[K, V cmp.Ordered, T lattice.TotalOrder[T], R trace.Diff](a *Arranged[K, V, T, R], queries dataflow.Stream[T, Query[K, T]], opts LookupOptions) dataflow.Stream[T, trace.Update[K, V, T, R]] {
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	name := opts.Name
	if name == "" {
		name = "TraceQuery"
	}
	reader := a.Trace.Clone()

	return dataflow.Binary(queries, a.Stream, name, func(c *dataflow.Capability[T], info dataflow.OperatorInfo) func(*dataflow.InputPort[T, Query[K, T]], *dataflow.InputPort[T, trace.BatchReader[K, V, T, R]], *dataflow.OutputPort[T, trace.Update[K, V, T, R]]) {
		c.Drop()
		log := logger.WithName("lookup").WithValues("operator", name, "worker", info.Worker)
		// merging is never a problem, answers are read through the full trace
		reader.DistinguishSince([]T{})

		var (
			stash      []Query[K, T]
			capability *dataflow.Capability[T]
			working    []timedVal[V, T, R]
			working2   []trace.Pair[V, R]
		)

		return func(queriesIn *dataflow.InputPort[T, Query[K, T]], batchesIn *dataflow.InputPort[T, trace.BatchReader[K, V, T, R]], out *dataflow.OutputPort[T, trace.Update[K, V, T, R]]) {
			queriesIn.ForEach(func(ic *dataflow.InputCapability[T], data []Query[K, T]) {
				if capability == nil || lattice.LessThan(ic.Time(), capability.Time()) {
					if capability != nil {
						capability.Drop()
					}
					capability = ic.Retain()
				}
				stash = append(stash, data...)
			})
			batchesIn.ForEach(func(*dataflow.InputCapability[T], []trace.BatchReader[K, V, T, R]) {})

			drained := false
			if capability != nil && reader != nil {
				complete := batchesIn.Frontier()
				if !complete.LessEqual(capability.Time()) {
					var active, retained []Query[K, T]
					for _, q := range stash {
						if complete.LessEqual(q.Time) {
							retained = append(retained, q)
						} else {
							active = append(active, q)
						}
					}
					stash = retained
					drained = len(active) > 0

					slices.SortFunc(active, func(x, y Query[K, T]) int {
						if o := cmp.Compare(x.Key, y.Key); o != 0 {
							return o
						}
						return x.Time.Cmp(y.Time)
					})

					cursor := reader.Cursor()
					session := out.Session(capability)
					answered := 0
					emit := func(key K, t T) {
						for _, p := range working2 {
							session.Give(trace.Update[K, V, T, R]{Key: key, Val: p.Data, Time: t, Diff: p.Diff})
						}
						answered += len(working2)
					}

					for i := 0; i < len(active); {
						key := active[i].Key
						j := i
						for j < len(active) && active[j].Key == key {
							j++
						}
						group := active[i:j]
						queried := j - i
						answered = 0
						i = j

						cursor.SeekKey(key)
						if !cursor.KeyValid() || cursor.Key() != key {
							log.V(2).Info("answered queries", "key", key, "queries", queried, "answers", 0)
							continue
						}

						for ; cursor.ValValid(); cursor.StepVal() {
							val := cursor.Val()
							cursor.MapTimes(func(t T, r R) {
								working = append(working, timedVal[V, T, R]{time: t, val: val, diff: r})
							})
						}
						slices.SortStableFunc(working, func(x, y timedVal[V, T, R]) int { return x.time.Cmp(y.time) })

						// sweep updates in time order, answering each query before the first
						// update later than its time
						for _, w := range working {
							if len(group) > 0 && lattice.LessThan(group[0].Time, w.time) {
								working2 = trace.Consolidate(working2, 0)
								for len(group) > 0 && lattice.LessThan(group[0].Time, w.time) {
									emit(key, group[0].Time)
									group = group[1:]
								}
							}
							working2 = append(working2, trace.Pair[V, R]{Data: w.val, Diff: w.diff})
						}
						if len(group) > 0 {
							working2 = trace.Consolidate(working2, 0)
							for _, q := range group {
								emit(key, q.Time)
							}
						}
						log.V(2).Info("answered queries", "key", key, "queries", queried, "answers", answered)
						working = working[:0]
						working2 = working2[:0]
					}
				}
			}

			if drained {
				if len(stash) == 0 {
					capability.Drop()
					capability = nil
					log.V(4).Info("dropped capability")
				} else {
					least := stash[0].Time
					for _, q := range stash[1:] {
						if lattice.LessThan(q.Time, least) {
							least = q.Time
						}
					}
					capability.Downgrade(least)
					log.V(4).Info("downgraded capability", "time", least.String(), "pending", len(stash))
				}
			}

			// the trace only needs to distinguish times queries may still be issued for
			var least []T
			if capability != nil {
				least = append(least, capability.Time())
			}
			if f := queriesIn.Frontier(); len(f) > 0 {
				if len(least) == 0 || lattice.LessThan(f[0], least[0]) {
					least = []T{f[0]}
				}
			}
			switch {
			case reader == nil:
			case len(least) > 0:
				if !lattice.Equal(reader.AdvanceFrontier(), least) {
					reader.AdvanceBy(least)
					log.V(4).Info("advanced trace hold", "frontier", lattice.Antichain[T](least).String(),
						"pending", len(stash))
				}
			default:
				reader.Release()
				reader = nil
				log.V(1).Info("queries exhausted, released trace")
			}
		}
	})
}
