package dataflow

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/l7mp/ddflow/pkg/trace"
)

// Execute runs a program on a number of workers, each in its own goroutine. The program builds
// its dataflows on the worker it is given and steps it until done. The first error cancels the
// context of the other workers and is returned. Invariant violations raised on a worker are
// returned as errors.
func Execute(ctx context.Context, workers int, opts Options, program func(ctx context.Context, w *Worker) error) error {
	if workers <= 0 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					e, ok := r.(error)
					var ie *trace.InvariantError
					if !ok || !errors.As(e, &ie) {
						panic(r)
					}
					err = fmt.Errorf("worker %d: %w", i, e)
				}
			}()
			w := NewWorker(i, workers, opts)
			w.log.V(1).Info("starting worker", "peers", workers)
			if err := program(ctx, w); err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			w.log.V(1).Info("worker finished", "steps", w.Steps())
			return nil
		})
	}
	return g.Wait()
}
