package dataflow

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/l7mp/ddflow/internal/dag"
	"github.com/l7mp/ddflow/pkg/trace"
)

// Options configures a worker.
type Options struct {
	Logger logr.Logger
}

// OperatorInfo describes an operator to its builder.
type OperatorInfo struct {
	// Name is the name given at construction.
	Name string
	// Index is the worker-wide unique index of the operator.
	Index int
	// Address is the path of the operator in the scope hierarchy.
	Address []int
	// Worker is the index of the worker running the operator, Peers is the number of workers.
	Worker, Peers int
}

type operator struct {
	info     OperatorInfo
	schedule func()
}

// Worker runs the operators of its dataflows from a single goroutine.
type Worker struct {
	index, peers int
	graph        *dag.Graph
	operators    []*operator
	dataflows    int
	steps        uint64
	log          logr.Logger
}

// NewWorker creates a worker. Index is the index of the worker among peers.
func NewWorker(index, peers int, opts Options) *Worker {
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	if peers <= 0 {
		peers = 1
	}
	return &Worker{
		index: index,
		peers: peers,
		graph: dag.New(),
		log:   logger.WithName("worker").WithValues("index", index),
	}
}

// Index returns the index of the worker.
func (w *Worker) Index() int { return w.index }

// Peers returns the number of workers.
func (w *Worker) Peers() int { return w.peers }

// Logger returns the logger of the worker.
func (w *Worker) Logger() logr.Logger { return w.log }

// Steps returns the number of completed scheduling rounds.
func (w *Worker) Steps() uint64 { return w.steps }

// Step schedules every operator once, producers before consumers.
func (w *Worker) Step() {
	for _, id := range w.graph.TopologicalOrder() {
		if op := w.operators[id]; op.schedule != nil {
			op.schedule()
		}
	}
	w.steps++
}

// StepWhile steps the worker as long as cond holds.
func (w *Worker) StepWhile(cond func() bool) {
	for cond() {
		w.Step()
	}
}

// Run steps the worker as long as cond holds or until the context is canceled.
func (w *Worker) Run(ctx context.Context, cond func() bool) error {
	for cond() {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.Step()
	}
	return nil
}

func (w *Worker) newOperator(address []int, name string) *operator {
	id := w.graph.AddNode(name)
	op := &operator{info: OperatorInfo{
		Name:    name,
		Index:   id,
		Address: address,
		Worker:  w.index,
		Peers:   w.peers,
	}}
	w.operators = append(w.operators, op)
	w.log.V(4).Info("new operator", "name", name, "index", id, "address", address)
	return op
}

func (w *Worker) connect(from, to int) {
	if err := w.graph.AddEdge(from, to); err != nil {
		trace.Invariantf("connect", "%s", err.Error())
	}
}
