package gate

import (
	"testing"

	"github.com/jonathan/job-autopilot/internal/types"
	"github.com/stretchr/testify/assert"
)

func testProfile(vocab ...string) *types.Profile {
	return &types.Profile{
		StudentID:  "stu_001",
		ResumeHash: "hash",
		SkillVocab: vocab,
		Constraints: &types.Constraints{
			MaxAppsPerDay:    5,
			MinMatchScore:    0.4,
			BlockedCompanies: []string{"Initech"},
		},
	}
}

func TestEvaluate_MissingConstraints(t *testing.T) {
	p := testProfile("Go")
	p.Constraints = nil

	d := Evaluate(p, &types.JobListing{JobID: "j1", Company: "Acme"}, 0)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "constraints not defined")
}

func TestEvaluate_BlockedCompany(t *testing.T) {
	job := &types.JobListing{JobID: "j1", Company: "Initech", RequiredSkills: []string{"Go"}}

	d := Evaluate(testProfile("Go"), job, 0)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "Initech")
}

func TestEvaluate_BlockedCheckedBeforeSkills(t *testing.T) {
	job := &types.JobListing{JobID: "j1", Company: "Initech", RequiredSkills: []string{"COBOL"}, MinExperienceYears: 5}

	d := Evaluate(testProfile("Go"), job, 0)
	assert.Contains(t, d.Reason, "blocked_companies")
}

func TestEvaluate_EntryLevelThresholdIsInclusive(t *testing.T) {
	// 1 of 5 = 0.2, equal to the entry-level minimum
	job := &types.JobListing{
		JobID:          "j1",
		Company:        "Acme",
		RequiredSkills: []string{"Go", "Rust", "Kafka", "Redis", "Terraform"},
	}

	d := Evaluate(testProfile("go"), job, 0)
	assert.True(t, d.Allowed, d.Reason)
	assert.Empty(t, d.Reason)
}

func TestEvaluate_ExperiencedThreshold(t *testing.T) {
	job := &types.JobListing{
		JobID:              "j1",
		Company:            "Acme",
		RequiredSkills:     []string{"Go", "Rust", "Kafka", "Redis", "Terraform"},
		MinExperienceYears: 1,
	}

	d := Evaluate(testProfile("Go"), job, 0)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "Rust")
	assert.Contains(t, d.Reason, "matched 1 of 5")
	assert.NotContains(t, d.Reason, "[Go")

	// 3 of 10 = 0.3 passes at the experienced threshold
	job.RequiredSkills = []string{"Go", "Rust", "Kafka", "A", "B", "C", "D", "E", "F", "G"}
	d = Evaluate(testProfile("go", "RUST", "kafka"), job, 0)
	assert.True(t, d.Allowed, d.Reason)
}

func TestEvaluate_EmptyRequiredSkills(t *testing.T) {
	job := &types.JobListing{JobID: "j1", Company: "Acme"}

	d := Evaluate(testProfile(), job, 0)
	assert.True(t, d.Allowed)
}

func TestEvaluate_ExperienceCeiling(t *testing.T) {
	job := &types.JobListing{JobID: "j1", Company: "Acme", RequiredSkills: []string{"Go"}, MinExperienceYears: 2}
	assert.True(t, Evaluate(testProfile("Go"), job, 0).Allowed)

	job.MinExperienceYears = 3
	d := Evaluate(testProfile("Go"), job, 0)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "3 years")
}

func TestEvaluate_IgnoresDailyCount(t *testing.T) {
	job := &types.JobListing{JobID: "j1", Company: "Acme", RequiredSkills: []string{"Go"}}
	assert.True(t, Evaluate(testProfile("Go"), job, 1000).Allowed)
}

func TestSkillCoverage(t *testing.T) {
	c := SkillCoverage([]string{"python", "SQL"}, []string{"Python", "python", "Docker", "sql"})
	assert.Equal(t, 3, c.Required)
	assert.Equal(t, 2, c.Matched)
	assert.Equal(t, []string{"Docker"}, c.Missing)
	assert.InDelta(t, 2.0/3.0, c.Ratio(), 1e-9)

	assert.Equal(t, 1.0, SkillCoverage(nil, nil).Ratio())
}
