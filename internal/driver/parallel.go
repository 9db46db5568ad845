package driver

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"quill/internal/diag"
	"quill/internal/resolve"
	"quill/internal/sig"
)

// CallResult is the outcome of resolving one call of a unit.
type CallResult struct {
	Call     *sig.CallSite
	Resolved *resolve.ResolvedCall
	// Failure carries the per-candidate trace when resolution failed.
	Failure *resolve.Failure
	// Diagnostic is the rendered failure, ready for reporting.
	Diagnostic *diag.Diagnostic
}

// ResolveUnit resolves every call of the unit against its sealed
// universe. Calls are independent pure computations over the read-only
// snapshot, so they fan out over jobs workers; results keep the
// manifest's call order regardless of completion order.
func ResolveUnit(ctx context.Context, unit *Unit, jobs int) ([]CallResult, error) {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	results := make([]CallResult, len(unit.Calls))
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(jobs)

	for i, call := range unit.Calls {
		i, call := i, call
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := CallResult{Call: call}
			resolved, failure := resolve.Resolve(unit.Universe, call)
			if failure != nil {
				d := failure.Diagnostic(unit.Universe)
				res.Failure = failure
				res.Diagnostic = &d
			} else {
				res.Resolved = resolved
			}
			results[i] = res
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
