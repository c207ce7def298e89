package ranking

import (
	"sort"

	"github.com/jonathan/job-autopilot/internal/types"
)

// RankedJob pairs a job with its score.
type RankedJob struct {
	Job   types.JobListing
	Score float64
}

// RankJobs scores every job and returns them sorted by score, highest first.
// Ties keep their input order.
func RankJobs(scorer Scorer, profile *types.Profile, jobs []types.JobListing) []RankedJob {
	ranked := make([]RankedJob, 0, len(jobs))
	for i := range jobs {
		ranked = append(ranked, RankedJob{
			Job:   jobs[i],
			Score: scorer.Score(profile, &jobs[i]),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}

// Jobs extracts the listings from ranked results, preserving order.
func Jobs(ranked []RankedJob) []types.JobListing {
	jobs := make([]types.JobListing, len(ranked))
	for i, r := range ranked {
		jobs[i] = r.Job
	}
	return jobs
}
