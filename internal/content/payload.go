package content

import (
	"strings"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Fallback values used when the profile has no basic info.
const (
	DefaultApplicantName  = "AI Job Applicant"
	DefaultApplicantEmail = "ai.applicant@example.com"
	DefaultCoverLetter    = "I am interested in this position."

	payloadSkillLimit = 10
)

func applicantName(profile *types.Profile) string {
	if profile.BasicInfo.Name != "" {
		return profile.BasicInfo.Name
	}
	return DefaultApplicantName
}

// BuildPayload converts a profile and generated content into the portal request body.
func BuildPayload(profile *types.Profile, c *types.Content) types.ApplicationPayload {
	email := profile.BasicInfo.Email
	if email == "" {
		email = DefaultApplicantEmail
	}

	cover := DefaultCoverLetter
	if c != nil && c.CoverParagraph != "" {
		cover = c.CoverParagraph
	}

	skillList := profile.SkillVocab
	if len(skillList) > payloadSkillLimit {
		skillList = skillList[:payloadSkillLimit]
	}

	institutions := make([]string, 0, len(profile.Education))
	for _, edu := range profile.Education {
		institutions = append(institutions, edu.Institution)
	}

	return types.ApplicationPayload{
		ApplicantName:     applicantName(profile),
		Email:             email,
		CoverLetter:       cover,
		Skills:            strings.Join(skillList, ", "),
		Phone:             profile.BasicInfo.Phone,
		Location:          profile.BasicInfo.Location,
		CurrentRole:       "Job Seeker",
		Education:         strings.Join(institutions, ", "),
		Availability:      "Immediate",
		SalaryExpectation: "Negotiable",
	}
}
