package pipeline

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-autopilot/internal/logger"
	"github.com/jonathan/job-autopilot/internal/types"
)

// RunAll runs every profile with bounded parallelism. A failing profile does not stop
// the others; results keep the input order and all errors are joined.
func (r *Runner) RunAll(ctx context.Context, profiles []*types.Profile, trigger string) ([]*Result, error) {
	results := make([]*Result, len(profiles))
	errs := make([]error, len(profiles))

	var g errgroup.Group
	if r.parallel > 0 {
		g.SetLimit(r.parallel)
	}

	for i, profile := range profiles {
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = &Result{ProfileID: profileID(profile), Err: ctx.Err()}
				errs[i] = ctx.Err()
				return nil
			}
			res, err := r.RunProfile(ctx, profile, trigger)
			if err != nil {
				r.log.Error("profile run failed",
					logger.ProfileID(profileID(profile)),
					logger.Error(err))
				res.Err = err
			}
			results[i] = res
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

func profileID(p *types.Profile) string {
	if p == nil {
		return ""
	}
	return p.StudentID
}
