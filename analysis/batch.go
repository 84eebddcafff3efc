package analysis

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/latido/logging"
	"github.com/RyanBlaney/latido/rr"
)

// BatchResult is the outcome of one series of a batch.
type BatchResult struct {
	Index  int     `json:"index"`
	Report *Report `json:"report,omitempty"`
	Err    error   `json:"-"`
}

// AnalyzeAll analyzes every series independently on up to Config.Workers
// goroutines. Results come back in input order. A failing series records
// its error in the matching BatchResult and does not stop the others;
// only cancellation of ctx aborts the batch.
func (a *Analyzer) AnalyzeAll(ctx context.Context, series []rr.Series) ([]BatchResult, error) {
	logger := a.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "AnalyzeAll",
		"series":   len(series),
		"workers":  a.config.Workers,
	})
	logger.Debug("Starting batch analysis")

	results := make([]BatchResult, len(series))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Workers)

	for i, s := range series {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report, err := a.Analyze(logging.ContextWithFields(gctx, logging.Fields{"series": i}), s)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			results[i] = BatchResult{Index: i, Report: report, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error(err, "Batch analysis cancelled")
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.Debug("Batch analysis completed", logging.Fields{"failed": failed})
	return results, nil
}
