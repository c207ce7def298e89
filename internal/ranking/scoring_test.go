package ranking

import (
	"testing"

	"github.com/jonathan/job-autopilot/internal/types"
	"github.com/stretchr/testify/assert"
)

func scoringProfile(locations ...string) *types.Profile {
	return &types.Profile{
		StudentID:  "stu_001",
		ResumeHash: "hash",
		SkillVocab: []string{"Golang", "SQL", "Docker"},
		Constraints: &types.Constraints{
			MaxAppsPerDay: 5,
			MinMatchScore: 0.5,
			Locations:     locations,
		},
	}
}

func TestComputeSkillOverlapScore_AliasMatch(t *testing.T) {
	job := &types.JobListing{RequiredSkills: []string{"Go", "sql", "Kubernetes", "Rust"}}

	score, matched := computeSkillOverlapScore(scoringProfile(), job)

	assert.InDelta(t, 0.5, score, 0.001)
	assert.Equal(t, []string{"Go", "sql"}, matched)
}

func TestComputeSkillOverlapScore_NoRequirements(t *testing.T) {
	score, matched := computeSkillOverlapScore(scoringProfile(), &types.JobListing{})
	assert.Equal(t, 1.0, score)
	assert.Empty(t, matched)
}

func TestComputeExperienceFitScore(t *testing.T) {
	assert.Equal(t, 1.0, computeExperienceFitScore(&types.JobListing{MinExperienceYears: 0}))
	assert.Equal(t, 0.7, computeExperienceFitScore(&types.JobListing{MinExperienceYears: 1}))
	assert.Equal(t, 0.4, computeExperienceFitScore(&types.JobListing{MinExperienceYears: 2}))
	assert.Equal(t, 0.0, computeExperienceFitScore(&types.JobListing{MinExperienceYears: 5}))
}

func TestComputeLocationMatchScore(t *testing.T) {
	tests := []struct {
		name      string
		preferred []string
		location  string
		want      float64
	}{
		{"no preference", nil, "Berlin", 1.0},
		{"remote job", []string{"Toronto"}, "Remote", 1.0},
		{"substring match", []string{"toronto"}, "Toronto, ON", 1.0},
		{"mismatch", []string{"Toronto"}, "Berlin", 0.0},
		{"unknown location", []string{"Toronto"}, "", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &types.JobListing{Location: tt.location}
			assert.Equal(t, tt.want, computeLocationMatchScore(scoringProfile(tt.preferred...), job))
		})
	}
}

func TestWeightedScorer_BoundedAndDeterministic(t *testing.T) {
	scorer := NewWeightedScorer()
	profile := scoringProfile("Toronto")
	job := &types.JobListing{
		JobID:              "j1",
		Location:           "Toronto",
		RequiredSkills:     []string{"Go", "SQL"},
		MinExperienceYears: 0,
	}

	first := scorer.Score(profile, job)
	second := scorer.Score(profile, job)

	assert.Equal(t, first, second)
	assert.InDelta(t, 1.0, first, 1e-9)

	job.RequiredSkills = []string{"Haskell"}
	job.MinExperienceYears = 5
	job.Location = "Berlin"
	assert.Equal(t, 0.0, scorer.Score(profile, job))
}

func TestWeightedScorer_Explain(t *testing.T) {
	b := NewWeightedScorer().Explain(scoringProfile(), &types.JobListing{
		RequiredSkills:     []string{"Go", "Rust"},
		MinExperienceYears: 1,
	})

	assert.InDelta(t, 0.5, b.SkillOverlap, 1e-9)
	assert.InDelta(t, 0.7, b.ExperienceFit, 1e-9)
	assert.InDelta(t, 1.0, b.LocationMatch, 1e-9)
	assert.InDelta(t, 0.6*0.5+0.25*0.7+0.15, b.Score, 1e-9)
	assert.Equal(t, []string{"Go"}, b.MatchedSkills)
}
