// Package tracker records application decisions as an append-only event stream
// and mirrors every event to a tab-separated audit log.
package tracker

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonathan/job-autopilot/internal/logger"
	"github.com/jonathan/job-autopilot/internal/types"
)

// Default audit log location, relative to the working directory.
const (
	DefaultLogDir  = "logs"
	DefaultLogFile = "applications.log"
)

// Entry is the input to Track. Reason and ReceiptID are dropped for statuses
// that do not carry them. A zero Timestamp means "now".
type Entry struct {
	JobID     string
	Status    types.Status
	Reason    string
	ReceiptID string
	Company   string
	Role      string
	Timestamp time.Time
}

// Observer is notified of every recorded event, after the tracker lock is released.
type Observer func(types.ApplicationEvent)

// AuditError reports that an event was recorded in memory but the audit log append failed.
type AuditError struct {
	JobID string
	Cause error
}

func (e *AuditError) Error() string {
	return fmt.Sprintf("audit log append failed for job %s: %v", e.JobID, e.Cause)
}

func (e *AuditError) Unwrap() error {
	return e.Cause
}

// Tracker is safe for concurrent use. Events are never removed or reordered.
type Tracker struct {
	mu        sync.Mutex
	events    []types.ApplicationEvent
	audit     io.Writer
	closer    io.Closer
	now       func() time.Time
	observers []Observer
	log       logger.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source used for default timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithObserver registers an observer for recorded events.
func WithObserver(o Observer) Option {
	return func(t *Tracker) {
		t.observers = append(t.observers, o)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		t.log = l
	}
}

// New creates a tracker writing audit lines to audit. A nil audit discards lines.
func New(audit io.Writer, opts ...Option) *Tracker {
	if audit == nil {
		audit = io.Discard
	}
	t := &Tracker{
		audit: audit,
		now:   time.Now,
		log:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Open creates dir if needed and appends audit lines to dir/applications.log.
// The caller must Close the tracker.
func Open(dir string, opts ...Option) (*Tracker, error) {
	if dir == "" {
		dir = DefaultLogDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, DefaultLogFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log %s: %w", path, err)
	}

	t := New(f, opts...)
	t.closer = f
	return t, nil
}

// Close closes the audit log if the tracker opened it.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closer == nil {
		return nil
	}
	err := t.closer.Close()
	t.closer = nil
	t.audit = io.Discard
	return err
}

// Track records one event. It panics on an unknown status, which is a programming error.
// If the audit append fails the event is still kept in memory and an *AuditError is returned.
func (t *Tracker) Track(e Entry) (types.ApplicationEvent, error) {
	if !e.Status.Valid() {
		panic(fmt.Sprintf("tracker: invalid status %q, allowed %v", e.Status, types.AllStatuses))
	}

	event := types.ApplicationEvent{
		JobID:   e.JobID,
		Status:  e.Status,
		Company: e.Company,
		Role:    e.Role,
	}
	if e.Status.CarriesReason() && e.Reason != "" {
		reason := e.Reason
		event.Reason = &reason
	}
	if e.Status.CarriesReceipt() && e.ReceiptID != "" {
		receipt := e.ReceiptID
		event.ReceiptID = &receipt
	}

	t.mu.Lock()
	if e.Timestamp.IsZero() {
		event.Timestamp = t.now().UTC()
	} else {
		event.Timestamp = e.Timestamp.UTC()
	}
	t.events = append(t.events, event)
	err := t.appendLog(event)
	t.mu.Unlock()

	for _, o := range t.observers {
		o(event.Clone())
	}

	if err != nil {
		t.log.Error("audit log append failed",
			logger.JobID(event.JobID),
			logger.String("status", string(event.Status)),
			logger.Error(err))
		return event.Clone(), &AuditError{JobID: event.JobID, Cause: err}
	}
	return event.Clone(), nil
}

// appendLog writes one line and syncs it if the sink supports it. Caller holds mu.
func (t *Tracker) appendLog(e types.ApplicationEvent) error {
	if _, err := io.WriteString(t.audit, FormatLine(e)); err != nil {
		return err
	}
	if s, ok := t.audit.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}

// Applications returns a deep copy of every event recorded so far, in insertion order.
func (t *Tracker) Applications() []types.ApplicationEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return types.CloneEvents(t.events)
}

// Len returns the number of recorded events.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}
