// Package schemas validates profile and job input files against embedded JSON Schemas.
package schemas

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Schema names used in SchemaLoadError.Path.
const (
	ProfilesSchema = "profiles.schema.json"
	JobsSchema     = "jobs.schema.json"
)

//go:embed profiles.schema.json
var profilesSchema string

//go:embed jobs.schema.json
var jobsSchema string

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema or document
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateJSONString validates JSON content against schema content. name labels
// load errors.
func ValidateJSONString(name, schemaContent string, jsonContent []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewBytesLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    name,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

// ValidateProfiles checks a profiles document. A single profile object is
// accepted as well as an array.
func ValidateProfiles(data []byte) error {
	return ValidateJSONString(ProfilesSchema, profilesSchema, asArray(data))
}

// ValidateJobs checks a job listings document.
func ValidateJobs(data []byte) error {
	return ValidateJSONString(JobsSchema, jobsSchema, data)
}

// LoadProfiles reads, validates and decodes a profiles file.
func LoadProfiles(path string) ([]*types.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file %s: %w", path, err)
	}
	data = asArray(data)
	if err := ValidateProfiles(data); err != nil {
		return nil, fmt.Errorf("invalid profiles file %s: %w", path, err)
	}

	var profiles []*types.Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode profiles file %s: %w", path, err)
	}
	return profiles, nil
}

// LoadJobs reads, validates and decodes a job listings file.
func LoadJobs(path string) ([]types.JobListing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs file %s: %w", path, err)
	}
	if err := ValidateJobs(data); err != nil {
		return nil, fmt.Errorf("invalid jobs file %s: %w", path, err)
	}

	var jobs []types.JobListing
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode jobs file %s: %w", path, err)
	}
	return jobs, nil
}

// asArray wraps a top-level object in an array.
func asArray(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		out := make([]byte, 0, len(trimmed)+2)
		out = append(out, '[')
		out = append(out, trimmed...)
		return append(out, ']')
	}
	return data
}
