package content

import (
	"testing"

	"github.com/jonathan/job-autopilot/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contentProfile() *types.Profile {
	return &types.Profile{
		StudentID:  "stu_001",
		ResumeHash: "hash",
		SkillVocab: []string{"Go", "PostgreSQL", "Docker"},
		Constraints: &types.Constraints{
			MaxAppsPerDay: 3,
		},
		BasicInfo: types.BasicInfo{Name: "Ada Park", Email: "ada@example.com"},
		Education: []types.Education{{Institution: "State University"}},
	}
}

func TestTemplateGenerator_Generate(t *testing.T) {
	job := &types.JobListing{
		JobID:          "j1",
		Company:        "Acme",
		Role:           "Backend Intern",
		RequiredSkills: []string{"golang", "Postgres", "Kafka"},
	}

	c, reason := NewTemplateGenerator().Generate(contentProfile(), job)
	require.NotNil(t, c)
	assert.Empty(t, reason)
	assert.Contains(t, c.CoverParagraph, "I am Ada Park")
	assert.Contains(t, c.CoverParagraph, "Backend Intern position at Acme")
	assert.Contains(t, c.CoverParagraph, "golang, Postgres")
	assert.Contains(t, c.CoverParagraph, "State University")
	assert.Equal(t, []string{"golang", "Postgres"}, c.MatchedSkills)
}

func TestTemplateGenerator_NoOverlapSkips(t *testing.T) {
	job := &types.JobListing{JobID: "j1", Company: "Acme", Role: "ML Intern", RequiredSkills: []string{"PyTorch"}}

	c, reason := NewTemplateGenerator().Generate(contentProfile(), job)
	assert.Nil(t, c)
	assert.Equal(t, "no overlapping skills to highlight for ML Intern at Acme", reason)
}

func TestTemplateGenerator_NoRequiredSkills(t *testing.T) {
	job := &types.JobListing{JobID: "j1", Company: "Acme", Role: "Generalist"}

	c, reason := NewTemplateGenerator().Generate(contentProfile(), job)
	require.NotNil(t, c, reason)
	assert.NotContains(t, c.CoverParagraph, "hands-on experience")
}

func TestTemplateGenerator_LengthLimit(t *testing.T) {
	job := &types.JobListing{JobID: "j1", Company: "Acme", Role: "Intern", RequiredSkills: []string{"Go"}}

	c, reason := NewTemplateGenerator(WithMaxCoverLength(20)).Generate(contentProfile(), job)
	assert.Nil(t, c)
	assert.Contains(t, reason, "exceeds limit of 20")
}

func TestTemplateGenerator_CustomTemplate(t *testing.T) {
	job := &types.JobListing{JobID: "j1", Company: "Acme", Role: "Intern", RequiredSkills: []string{"Go"}}

	c, _ := NewTemplateGenerator(WithTemplate("{{.Name}} -> {{.Company}}")).Generate(contentProfile(), job)
	require.NotNil(t, c)
	assert.Equal(t, "Ada Park -> Acme", c.CoverParagraph)
}

func TestBuildPayload(t *testing.T) {
	p := contentProfile()
	p.SkillVocab = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}

	payload := BuildPayload(p, &types.Content{CoverParagraph: "Hello"})

	assert.Equal(t, "Ada Park", payload.ApplicantName)
	assert.Equal(t, "ada@example.com", payload.Email)
	assert.Equal(t, "Hello", payload.CoverLetter)
	assert.Equal(t, "a, b, c, d, e, f, g, h, i, j", payload.Skills)
	assert.Equal(t, "State University", payload.Education)
	assert.Equal(t, "Job Seeker", payload.CurrentRole)
	assert.Equal(t, "Immediate", payload.Availability)
	assert.Equal(t, "Negotiable", payload.SalaryExpectation)
}

func TestBuildPayload_Fallbacks(t *testing.T) {
	p := contentProfile()
	p.BasicInfo = types.BasicInfo{}
	p.Education = nil

	payload := BuildPayload(p, nil)

	assert.Equal(t, DefaultApplicantName, payload.ApplicantName)
	assert.Equal(t, DefaultApplicantEmail, payload.Email)
	assert.Equal(t, DefaultCoverLetter, payload.CoverLetter)
	assert.Empty(t, payload.Education)
}
