package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Run statuses
const (
	RunStatusCompleted = "completed"
	// RunStatusPartial marks a run that stopped early but recorded events.
	RunStatusPartial = "partial"
	RunStatusFailed  = "failed"
)

// Run triggers
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerAPI       = "api"
)

// Run represents an autopilot run record
type Run struct {
	ID          uuid.UUID        `json:"id"`
	ProfileID   string           `json:"profile_id"`
	Trigger     string           `json:"trigger"`
	Status      string           `json:"status"`
	Summary     types.RunSummary `json:"summary"`
	Error       string           `json:"error,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
}

// EventFilter narrows ListEvents. Zero values match everything.
type EventFilter struct {
	ProfileID string
	RunID     uuid.UUID
	Since     time.Time
	Until     time.Time
	Limit     int
}

// DefaultEventLimit caps ListEvents when no limit is given.
const DefaultEventLimit = 500
