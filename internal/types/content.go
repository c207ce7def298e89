package types

// Content is generated application material for one job.
type Content struct {
	CoverParagraph string   `json:"cover_paragraph"`
	MatchedSkills  []string `json:"matched_skills,omitempty"`
}

// ApplicationPayload is the body sent to the job portal.
type ApplicationPayload struct {
	ApplicantName     string `json:"applicant_name"`
	Email             string `json:"email"`
	CoverLetter       string `json:"cover_letter"`
	Skills            string `json:"skills"`
	Phone             string `json:"phone"`
	Location          string `json:"location"`
	CurrentRole       string `json:"current_role"`
	Education         string `json:"education"`
	Availability      string `json:"availability"`
	SalaryExpectation string `json:"salary_expectation"`
}

// SubmitResult is the outcome of one submission attempt. Failures are data, not errors.
type SubmitResult struct {
	Success       bool   `json:"success"`
	ReceiptID     string `json:"receipt_id,omitempty"`
	ApplicationID string `json:"application_id,omitempty"`
	Error         string `json:"error,omitempty"`
}
