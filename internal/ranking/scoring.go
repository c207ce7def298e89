// Package ranking scores job listings against an applicant profile.
package ranking

import (
	"strings"

	"github.com/jonathan/job-autopilot/internal/skills"
	"github.com/jonathan/job-autopilot/internal/types"
)

// Default weights for scoring components
const (
	skillOverlapWeight  = 0.6
	experienceFitWeight = 0.25
	locationMatchWeight = 0.15
)

// Scorer computes a compatibility score in [0, 1]. Implementations must be pure:
// identical inputs always produce identical scores.
type Scorer interface {
	Score(profile *types.Profile, job *types.JobListing) float64
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(profile *types.Profile, job *types.JobListing) float64

// Score calls f(profile, job).
func (f ScorerFunc) Score(profile *types.Profile, job *types.JobListing) float64 {
	return f(profile, job)
}

// Breakdown holds the component scores behind a final score.
type Breakdown struct {
	Score         float64  `json:"score"`
	SkillOverlap  float64  `json:"skill_overlap"`
	ExperienceFit float64  `json:"experience_fit"`
	LocationMatch float64  `json:"location_match"`
	MatchedSkills []string `json:"matched_skills,omitempty"`
}

// WeightedScorer is the default Scorer: a fixed weighted sum of skill overlap,
// experience fit, and location match.
type WeightedScorer struct{}

// NewWeightedScorer returns the default scorer.
func NewWeightedScorer() *WeightedScorer {
	return &WeightedScorer{}
}

// Score implements Scorer.
func (w *WeightedScorer) Score(profile *types.Profile, job *types.JobListing) float64 {
	return w.Explain(profile, job).Score
}

// Explain returns the score together with its components.
func (w *WeightedScorer) Explain(profile *types.Profile, job *types.JobListing) Breakdown {
	skillOverlap, matched := computeSkillOverlapScore(profile, job)
	experienceFit := computeExperienceFitScore(job)
	locationMatch := computeLocationMatchScore(profile, job)

	score := (skillOverlapWeight * skillOverlap) +
		(experienceFitWeight * experienceFit) +
		(locationMatchWeight * locationMatch)

	return Breakdown{
		Score:         clamp(score),
		SkillOverlap:  skillOverlap,
		ExperienceFit: experienceFit,
		LocationMatch: locationMatch,
		MatchedSkills: matched,
	}
}

// computeSkillOverlapScore returns the share of the job's required skills found in the
// profile vocabulary (aliases resolved) and the matched skills in job order.
func computeSkillOverlapScore(profile *types.Profile, job *types.JobListing) (float64, []string) {
	required := skills.Unique(job.RequiredSkills)
	if len(required) == 0 {
		return 1.0, nil
	}

	vocab := skills.NewVocabulary(profile.SkillVocab)
	matched := make([]string, 0, len(required))
	for _, s := range required {
		if vocab.ContainsCanonical(s) {
			matched = append(matched, s)
		}
	}

	return float64(len(matched)) / float64(len(required)), matched
}

// computeExperienceFitScore favours entry-level roles.
// 0 years = 1.0, 1 year = 0.7, 2 years = 0.4, more = 0.0
func computeExperienceFitScore(job *types.JobListing) float64 {
	switch {
	case job.MinExperienceYears <= 0:
		return 1.0
	case job.MinExperienceYears == 1:
		return 0.7
	case job.MinExperienceYears == 2:
		return 0.4
	default:
		return 0.0
	}
}

// computeLocationMatchScore checks the job location against the profile's preferred locations.
// No preference, a remote job, or a substring match all score 1.0.
func computeLocationMatchScore(profile *types.Profile, job *types.JobListing) float64 {
	var preferred []string
	if profile.Constraints != nil {
		preferred = profile.Constraints.Locations
	}
	if len(preferred) == 0 {
		return 1.0
	}

	location := strings.ToLower(strings.TrimSpace(job.Location))
	if location == "" {
		return 0.5 // unknown location is neutral
	}
	if strings.Contains(location, "remote") {
		return 1.0
	}
	for _, p := range preferred {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" && strings.Contains(location, p) {
			return 1.0
		}
	}
	return 0.0
}

func clamp(score float64) float64 {
	if score > 1.0 {
		return 1.0
	}
	if score < 0.0 {
		return 0.0
	}
	return score
}
