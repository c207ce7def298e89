package types

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput is matched by every InputError.
var ErrInvalidInput = errors.New("invalid run input")

// InputError reports a structurally invalid profile or job listing.
// Index is 1-based and only set for job entries.
type InputError struct {
	Entry string
	Index int
	Cause error
}

func (e *InputError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("%s entry #%d schema validation failed: %v", e.Entry, e.Index, e.Cause)
	}
	return fmt.Sprintf("%s schema validation failed: %v", e.Entry, e.Cause)
}

func (e *InputError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match ErrInvalidInput.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Validate validates the Profile using the validator.
func (p *Profile) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// Validate validates the JobListing using the validator.
func (j *JobListing) Validate() error {
	validate := validator.New()
	return validate.Struct(j)
}

// ValidateAppsToday rejects a negative count of applications already made today.
func ValidateAppsToday(appsToday int) error {
	if appsToday < 0 {
		return &InputError{Entry: "apps today count", Cause: fmt.Errorf("must not be negative, got %d", appsToday)}
	}
	return nil
}

// ValidateRunInputs checks the profile and every job before a run starts.
// The first invalid entry aborts validation.
func ValidateRunInputs(profile *Profile, jobs []JobListing) error {
	if profile == nil {
		return &InputError{Entry: "student profile", Cause: errors.New("profile is nil")}
	}
	validate := validator.New()
	if err := validate.Struct(profile); err != nil {
		return &InputError{Entry: "student profile", Cause: err}
	}
	for i := range jobs {
		if err := validate.Struct(&jobs[i]); err != nil {
			return &InputError{Entry: "job", Index: i + 1, Cause: err}
		}
	}
	return nil
}
