package types

import (
	"fmt"
	"time"
)

// Status is the outcome recorded for a job at a decision point.
type Status string

// Status constants
const (
	StatusQueued    Status = "queued"
	StatusSkipped   Status = "skipped"
	StatusSubmitted Status = "submitted"
	StatusFailed    Status = "failed"
	StatusRetried   Status = "retried"
)

// AllStatuses lists every valid status in summary order.
var AllStatuses = []Status{StatusQueued, StatusSkipped, StatusSubmitted, StatusRetried, StatusFailed}

// Valid reports whether s is one of the five known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusSkipped, StatusSubmitted, StatusFailed, StatusRetried:
		return true
	}
	return false
}

// CarriesReason reports whether events with this status keep a reason.
func (s Status) CarriesReason() bool {
	return s == StatusSkipped || s == StatusFailed
}

// CarriesReceipt reports whether events with this status keep a receipt ID.
// Only submitted does; retried events drop the receipt even though one exists.
func (s Status) CarriesReceipt() bool {
	return s == StatusSubmitted
}

// IsApplied reports whether the status counts against the daily quota.
func (s Status) IsApplied() bool {
	return s == StatusSubmitted || s == StatusRetried
}

// ParseStatus converts a string into a Status, rejecting unknown values.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("invalid status %q: allowed %v", raw, AllStatuses)
	}
	return s, nil
}

// ApplicationEvent is one immutable record of a decision about a job.
type ApplicationEvent struct {
	JobID     string    `json:"job_id"`
	Status    Status    `json:"status"`
	Reason    *string   `json:"reason,omitempty"`
	ReceiptID *string   `json:"receipt_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Company   string    `json:"company,omitempty"`
	Role      string    `json:"role,omitempty"`
}

// Clone returns a copy that shares no memory with e.
func (e ApplicationEvent) Clone() ApplicationEvent {
	if e.Reason != nil {
		reason := *e.Reason
		e.Reason = &reason
	}
	if e.ReceiptID != nil {
		receipt := *e.ReceiptID
		e.ReceiptID = &receipt
	}
	return e
}

// CloneEvents deep-copies events.
func CloneEvents(events []ApplicationEvent) []ApplicationEvent {
	out := make([]ApplicationEvent, len(events))
	for i, e := range events {
		out[i] = e.Clone()
	}
	return out
}

// ReasonText returns the reason or an empty string.
func (e ApplicationEvent) ReasonText() string {
	if e.Reason == nil {
		return ""
	}
	return *e.Reason
}

// Receipt returns the receipt ID or an empty string.
func (e ApplicationEvent) Receipt() string {
	if e.ReceiptID == nil {
		return ""
	}
	return *e.ReceiptID
}
