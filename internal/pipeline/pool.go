package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// unitOutcome is one worker result. Attempted is false when cancellation
// arrived before the unit was dispatched; such slots carry no value and no
// error.
type unitOutcome[T any] struct {
	Value     T
	Err       error
	Attempted bool
}

// mapUnits fans in units over a bounded worker pool and collects outcomes
// into slots indexed by unit position, so merge order never depends on
// completion order. Cancellation is observed before dispatching each unit;
// units already in flight run to completion so partial artifacts are never
// recorded. Per-unit errors are recorded in the outcome, they do not stop
// the pool.
func mapUnits[In, Out any](ctx context.Context, workers int, units []In, fn func(context.Context, In) (Out, error)) []unitOutcome[Out] {
	outcomes := make([]unitOutcome[Out], len(units))
	var g errgroup.Group
	if workers <= 0 {
		workers = 4
	}
	g.SetLimit(workers)
	for i, u := range units {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i].Attempted = true
			// Detach so an in-flight unit finishes instead of being
			// hard-aborted into a partial artifact.
			outcomes[i].Value, outcomes[i].Err = fn(context.WithoutCancel(ctx), u)
			return nil
		})
	}
	g.Wait()
	return outcomes
}
