package compiler

import (
	"context"
	"errors"

	"github.com/meikuraledutech/walletflow"
	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of compiling one flow of a batch.
type BatchResult struct {
	Program *walletflow.CompiledProgram `json:"program,omitempty"`
	Errors  []string                    `json:"errors,omitempty"`
}

// CompileAll compiles independent flows in parallel, at most limit at a time
// (limit <= 0 means unbounded). Results keep the input order. Validation failures are
// reported per flow; only ctx cancellation aborts the batch.
func (c *Compiler) CompileAll(ctx context.Context, flows []*walletflow.Flow, limit int) ([]BatchResult, error) {
	results := make([]BatchResult, len(flows))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, f := range flows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := c.Compile(f)
			if err != nil {
				var se *StructuralError
				if errors.As(err, &se) {
					results[i] = BatchResult{Errors: se.Errors}
					return nil
				}
				return err
			}
			results[i] = BatchResult{Program: p}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
