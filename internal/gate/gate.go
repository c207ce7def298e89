// Package gate implements the hard constraint checks a job must pass before it is scored.
package gate

import (
	"fmt"

	"github.com/jonathan/job-autopilot/internal/skills"
	"github.com/jonathan/job-autopilot/internal/types"
)

// Skill coverage thresholds, expressed as numerator/denominator so the
// comparison stays exact: 0.2 for entry-level jobs and 0.3 otherwise.
const (
	entryLevelCoverageNum  = 2
	experiencedCoverageNum = 3
	coverageDen            = 10

	// MaxExperienceYears is the highest experience requirement a student may apply for.
	MaxExperienceYears = 2
)

// Decision is the outcome of Evaluate. Reason is empty when Allowed is true.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision with the given reason.
func Deny(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// Evaluate runs the hard gates in order and stops at the first denial:
// constraints present, company not blocked, skill coverage, experience ceiling.
// The daily quota is not checked here; appsToday is ignored.
func Evaluate(profile *types.Profile, job *types.JobListing, appsToday int) Decision {
	if profile == nil || profile.Constraints == nil {
		return Deny("constraints not defined; refusing to score job")
	}
	constraints := profile.Constraints

	if constraints.IsBlocked(job.Company) {
		return Deny("company '%s' is in the student's blocked_companies list", job.Company)
	}

	if d := checkSkillCoverage(profile, job); !d.Allowed {
		return d
	}

	if job.MinExperienceYears > MaxExperienceYears {
		return Deny("job requires %d years of experience; student applications are limited to %d",
			job.MinExperienceYears, MaxExperienceYears)
	}

	return Allow()
}

// Coverage describes how much of a job's required skill set the profile covers.
type Coverage struct {
	Required int
	Matched  int
	Missing  []string
}

// Ratio returns Matched/Required, or 1 when nothing is required.
func (c Coverage) Ratio() float64 {
	if c.Required == 0 {
		return 1.0
	}
	return float64(c.Matched) / float64(c.Required)
}

// SkillCoverage computes the case-insensitive intersection of the job's required
// skills with the profile vocabulary. Required skills are counted once per distinct key.
func SkillCoverage(vocab []string, required []string) Coverage {
	v := skills.NewVocabulary(vocab)
	unique := skills.Unique(required)

	c := Coverage{Required: len(unique)}
	for _, s := range unique {
		if v.Contains(s) {
			c.Matched++
		} else {
			c.Missing = append(c.Missing, s)
		}
	}
	return c
}

// minimumCoverage returns the threshold numerator for the job's experience level.
func minimumCoverage(job *types.JobListing) int {
	if job.MinExperienceYears == 0 {
		return entryLevelCoverageNum
	}
	return experiencedCoverageNum
}

func checkSkillCoverage(profile *types.Profile, job *types.JobListing) Decision {
	c := SkillCoverage(profile.SkillVocab, job.RequiredSkills)
	if c.Required == 0 {
		return Allow()
	}

	num := minimumCoverage(job)
	// ratio < num/den, compared without floating point
	if c.Matched*coverageDen < num*c.Required {
		return Deny("job requires skill(s) %v that are not in the student's skill vocabulary (matched %d of %d, minimum %d%%)",
			c.Missing, c.Matched, c.Required, num*100/coverageDen)
	}
	return Allow()
}
