// Package workload drives a synthetic update stream through an arrangement on a worker and checks
// the resulting trace, and the answers of point queries against it, against an independent fold
// of the stream.
package workload

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/l7mp/ddflow/pkg/arrange"
	"github.com/l7mp/ddflow/pkg/config"
	"github.com/l7mp/ddflow/pkg/dataflow"
	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
	"github.com/l7mp/ddflow/pkg/trace/durable"
	"github.com/l7mp/ddflow/pkg/trace/ord"
	"github.com/l7mp/ddflow/pkg/visualize"
	"github.com/l7mp/ddflow/pkg/zset"
)

// Update is an update of the workload.
type Update = trace.Update[string, string, lattice.Time, int]

var kind = ord.Kind[string, string, lattice.Time, int]{}

// Generate returns the updates of every round. Round r happens at time r+1. The stream only
// removes elements that are present, and is the same for every call with the same config.
func Generate(cfg config.Workload) [][]Update {
	rng := rand.New(rand.NewSource(cfg.Seed))
	present := map[[2]string]int{}
	rounds := make([][]Update, cfg.Rounds)
	for r := range rounds {
		t := lattice.Time(r + 1)
		for i := 0; i < cfg.Updates; i++ {
			kv := [2]string{fmt.Sprintf("key-%04d", rng.Intn(cfg.Keys)), fmt.Sprintf("val-%03d", rng.Intn(cfg.Values))}
			diff := 1
			if present[kv] > 0 && rng.Intn(2) == 0 {
				diff = -1
			}
			present[kv] += diff
			rounds[r] = append(rounds[r], Update{Key: kv[0], Val: kv[1], Time: t, Diff: diff})
		}
	}
	return rounds
}

// Result summarizes the run of the workload on a worker.
type Result struct {
	Worker int
	// Recovered is the upper frontier of the trace recovered from the store.
	Recovered lattice.Antichain[lattice.Time]
	Updates   int
	Keys      int
	Batches   int
	Answers   int
	Graph     *visualize.Graph
}

// Run builds the workload dataflow on a worker and steps it to completion. If store is not nil,
// sealed batches are persisted, and rounds already covered by a recovered trace are skipped.
func Run(ctx context.Context, w *dataflow.Worker, cfg config.Config, store *durable.Store) (*Result, error) {
	log := w.Logger().WithName("workload")
	scope := dataflow.NewDataflow[lattice.Time](w, "workload")
	session, updates := dataflow.NewInputSession[string, string, lattice.Time, int](scope, "updates")

	opts := arrange.Options[string, string, lattice.Time, int]{
		Name:      "ArrangeWorkload",
		MergeFuel: cfg.MergeFuel,
		Logger:    w.Logger(),
	}
	if store != nil {
		opts.Persister = durable.NewPersister[string, string, lattice.Time, int](store, kind,
			durable.PersisterOptions{Logger: w.Logger()})
		opts.Discard = cfg.Durability.Reset
	}
	arranged, err := arrange.Arrange(updates, opts)
	if err != nil {
		return nil, err
	}
	defer arranged.Release()

	queries, queryStream := dataflow.NewInput[lattice.Time, arrange.Query[string, lattice.Time]](scope, "queries")
	answers := dataflow.Capture(arrange.Lookup(arranged, queryStream,
		arrange.LookupOptions{Name: "LookupWorkload", Logger: w.Logger()}))
	probe := dataflow.NewProbe(arranged.Stream)

	res := &Result{Worker: w.Index(), Recovered: arranged.Agent().Box().Trace().Upper().Clone()}
	oracle := zset.New[string, string, int]()
	final := lattice.Time(cfg.Workload.Rounds + 1)

	for r, round := range Generate(cfg.Workload) {
		t := lattice.Time(r + 1)
		var local []Update
		for _, u := range round {
			if dataflow.IsLocal(w, u.Key) {
				local = append(local, u)
				oracle.Insert(u.Key, u.Val, u.Diff)
			}
		}
		if res.Recovered.LessEqual(t) {
			session.AdvanceTo(t)
			for _, u := range local {
				session.Update(u.Key, u.Val, u.Diff)
			}
			res.Updates += len(local)
		}
		session.AdvanceTo(t + 1)
		if err := w.Run(ctx, func() bool { return probe.LessThan(t + 1) }); err != nil {
			return nil, err
		}
		log.V(2).Info("round complete", "time", t.String(), "updates", len(local))
	}
	session.AdvanceTo(final)

	// query every key as of the last round
	queries.AdvanceTo(final - 1)
	keys := oracle.Keys()
	res.Keys = len(keys)
	for _, k := range keys {
		queries.Send(arrange.Query[string, lattice.Time]{Key: k, Time: final - 1})
	}
	queries.Close()
	// the lookup frontier trails the arrangement frontier
	if err := w.Run(ctx, func() bool { return answers.LessThan(final) }); err != nil {
		return nil, err
	}

	if err := zset.FromCursor(arranged.Trace.Cursor(), final).Diff(oracle); err != nil {
		return nil, fmt.Errorf("arrangement diverged: %w", err)
	}
	answered := zset.FromUpdates(answers.Data(), final)
	if err := answered.Diff(oracle); err != nil {
		return nil, fmt.Errorf("lookup diverged: %w", err)
	}
	res.Answers = len(answers.Data())

	arranged.Trace.MapBatches(func(trace.BatchReader[string, string, lattice.Time, int]) { res.Batches++ })
	if layout, ok := arranged.Agent().Box().Trace().(visualize.Layout[string, string, lattice.Time, int]); ok {
		res.Graph = visualize.BuildGraph(fmt.Sprintf("worker %d", w.Index()), layout)
		visualize.AddReader(res.Graph, "arrangement", arranged.Trace.AdvanceFrontier(), arranged.Trace.DistinguishFrontier())
	}

	log.V(1).Info("workload complete", "updates", res.Updates, "keys", res.Keys,
		"batches", res.Batches, "answers", res.Answers)
	return res, nil
}
