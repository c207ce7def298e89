package types

// JobListing is a single job posting considered by the autopilot.
type JobListing struct {
	JobID              string   `json:"job_id" validate:"required"`
	Company            string   `json:"company" validate:"required"`
	Role               string   `json:"role" validate:"required"`
	Location           string   `json:"location"`
	RequiredSkills     []string `json:"required_skills" validate:"dive,required"`
	MinExperienceYears int      `json:"min_experience_years" validate:"gte=0"`

	// Optional portal metadata, carried through but not used for decisions.
	JobType         string   `json:"job_type,omitempty"`
	ExperienceLevel string   `json:"experience_level,omitempty"`
	Description     string   `json:"description,omitempty"`
	PreferredSkills []string `json:"preferred_skills,omitempty"`
	ApplicationURL  string   `json:"application_url,omitempty"`
}
