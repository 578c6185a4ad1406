package cohort

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/lifegap/internal/decomp"
)

// PairResult is the outcome of one request in a Batch.
// Err is set instead of Rows when that pair could not be decomposed.
type PairResult struct {
	Request Request
	Aligned *Aligned
	Result  *decomp.Result
	Rows    []Row
	Err     error
}

// Batch decomposes every request against the same records, running up to
// workers pairs at a time. Results are returned in request order. A failing
// pair does not stop the others; only context cancellation aborts the batch.
func Batch(ctx context.Context, records []Record, cols ColumnMapping, reqs []Request, workers int) ([]PairResult, error) {
	results := make([]PairResult, len(reqs))
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = runPair(records, cols, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runPair(records []Record, cols ColumnMapping, req Request) PairResult {
	out := PairResult{Request: req}
	aligned, err := Align(records, cols, req)
	if err != nil {
		out.Err = err
		return out
	}
	out.Aligned = aligned

	res, err := aligned.Decompose(req.Steps, req.Workers)
	if err != nil {
		out.Err = err
		return out
	}
	out.Result = res
	out.Rows = Annotate(res, req)
	return out
}
