// Package content generates application material for a job.
package content

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/jonathan/job-autopilot/internal/skills"
	"github.com/jonathan/job-autopilot/internal/types"
)

// Generator produces submittable content for a job, or a reason it cannot.
// A nil content with a non-empty reason is an expected outcome, not an error.
type Generator interface {
	Generate(profile *types.Profile, job *types.JobListing) (content *types.Content, skipReason string)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(profile *types.Profile, job *types.JobListing) (*types.Content, string)

// Generate calls f(profile, job).
func (f GeneratorFunc) Generate(profile *types.Profile, job *types.JobListing) (*types.Content, string) {
	return f(profile, job)
}

// DefaultMaxHighlights caps how many matched skills are named in the cover paragraph.
const DefaultMaxHighlights = 5

// DefaultMaxCoverLength is the longest cover paragraph the portal accepts.
const DefaultMaxCoverLength = 2000

const defaultCoverTemplate = `Dear Hiring Manager,

I am {{.Name}}, and I am excited to apply for the {{.Role}} position at {{.Company}}. ` +
	`{{if .Highlights}}I have hands-on experience with {{.Highlights}}, which the role calls for. {{end}}` +
	`{{if .Institution}}I am currently studying at {{.Institution}}. {{end}}` +
	`I would welcome the chance to contribute to your team.`

type coverData struct {
	Name        string
	Role        string
	Company     string
	Highlights  string
	Institution string
}

// TemplateGenerator renders a cover paragraph from a text/template.
type TemplateGenerator struct {
	tmpl           *template.Template
	maxHighlights  int
	maxCoverLength int
}

// Option configures a TemplateGenerator.
type Option func(*TemplateGenerator)

// WithTemplate replaces the default cover template.
func WithTemplate(text string) Option {
	return func(g *TemplateGenerator) {
		g.tmpl = template.Must(template.New("cover").Parse(text))
	}
}

// WithMaxCoverLength sets the maximum cover paragraph length in bytes.
func WithMaxCoverLength(n int) Option {
	return func(g *TemplateGenerator) {
		g.maxCoverLength = n
	}
}

// NewTemplateGenerator returns a generator using the default template.
func NewTemplateGenerator(opts ...Option) *TemplateGenerator {
	g := &TemplateGenerator{
		tmpl:           template.Must(template.New("cover").Parse(defaultCoverTemplate)),
		maxHighlights:  DefaultMaxHighlights,
		maxCoverLength: DefaultMaxCoverLength,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate implements Generator. It refuses jobs with required skills when none of
// them overlap the profile, since there is nothing to highlight.
func (g *TemplateGenerator) Generate(profile *types.Profile, job *types.JobListing) (*types.Content, string) {
	required := skills.Unique(job.RequiredSkills)
	vocab := skills.NewVocabulary(profile.SkillVocab)

	var matched []string
	for _, s := range required {
		if vocab.ContainsCanonical(s) {
			matched = append(matched, s)
		}
	}
	if len(required) > 0 && len(matched) == 0 {
		return nil, fmt.Sprintf("no overlapping skills to highlight for %s at %s", job.Role, job.Company)
	}

	highlights := matched
	if len(highlights) > g.maxHighlights {
		highlights = highlights[:g.maxHighlights]
	}

	data := coverData{
		Name:       applicantName(profile),
		Role:       job.Role,
		Company:    job.Company,
		Highlights: strings.Join(highlights, ", "),
	}
	if len(profile.Education) > 0 {
		data.Institution = profile.Education[0].Institution
	}

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Sprintf("cover letter template failed: %v", err)
	}

	cover := strings.TrimSpace(buf.String())
	if cover == "" {
		return nil, "cover letter template produced empty output"
	}
	if g.maxCoverLength > 0 && len(cover) > g.maxCoverLength {
		return nil, fmt.Sprintf("cover letter is %d characters, exceeds limit of %d", len(cover), g.maxCoverLength)
	}

	return &types.Content{
		CoverParagraph: cover,
		MatchedSkills:  matched,
	}, ""
}
