// Package types provides type definitions for structured data used throughout the job-autopilot system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Constraints is the applicant's hard policy for automated applications.
type Constraints struct {
	MaxAppsPerDay    int      `json:"max_apps_per_day" yaml:"max_apps_per_day" validate:"gt=0"`
	MinMatchScore    float64  `json:"min_match_score" yaml:"min_match_score" validate:"gte=0,lte=1"`
	BlockedCompanies []string `json:"blocked_companies,omitempty" yaml:"blocked_companies,omitempty" validate:"dive,required"`
	// Locations lists preferred locations; empty means any location is acceptable.
	Locations []string `json:"location,omitempty" yaml:"location,omitempty"`
}

// IsBlocked reports whether company is in the blocked list. The comparison is exact.
func (c *Constraints) IsBlocked(company string) bool {
	for _, blocked := range c.BlockedCompanies {
		if blocked == company {
			return true
		}
	}
	return false
}

// BasicInfo holds contact details used when composing a submission.
type BasicInfo struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Email    string `json:"email,omitempty" yaml:"email,omitempty" validate:"omitempty,email"`
	Phone    string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

// Education is a single education entry.
type Education struct {
	Institution string `json:"institution" yaml:"institution" validate:"required"`
	Degree      string `json:"degree,omitempty" yaml:"degree,omitempty"`
}

// Profile is the validated artifact pack for one applicant. It is read-only for the
// duration of a run.
type Profile struct {
	StudentID   string       `json:"student_id" yaml:"student_id" validate:"required"`
	ResumeHash  string       `json:"resume_hash" yaml:"resume_hash" validate:"required"`
	SkillVocab  []string     `json:"skill_vocab" yaml:"skill_vocab" validate:"dive,required"`
	Constraints *Constraints `json:"constraints" yaml:"constraints" validate:"required"`
	BasicInfo   BasicInfo    `json:"basic_info,omitempty" yaml:"basic_info,omitempty"`
	Education   []Education  `json:"education,omitempty" yaml:"education,omitempty" validate:"dive"`
}
