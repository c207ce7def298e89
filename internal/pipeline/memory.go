package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/job-autopilot/internal/autopilot"
	"github.com/jonathan/job-autopilot/internal/db"
	"github.com/jonathan/job-autopilot/internal/quota"
	"github.com/jonathan/job-autopilot/internal/types"
)

// MemoryStore is an in-process Store for runs without a database. History is lost
// when the process exits.
type MemoryStore struct {
	mu     sync.Mutex
	locked map[string]bool
	events map[string][]types.ApplicationEvent
	runs   []db.Run
}

var (
	_ Store                = (*MemoryStore)(nil)
	_ autopilot.QuotaProbe = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locked: make(map[string]bool),
		events: make(map[string][]types.ApplicationEvent),
	}
}

// LockProfile fails with db.ErrProfileLocked while another run holds the profile.
func (m *MemoryStore) LockProfile(_ context.Context, profileID string) (func(context.Context) error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked[profileID] {
		return nil, fmt.Errorf("%w: %s", db.ErrProfileLocked, profileID)
	}
	m.locked[profileID] = true

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			m.mu.Lock()
			delete(m.locked, profileID)
			m.mu.Unlock()
		})
		return nil
	}, nil
}

// CountApplied counts submitted and retried events for the profile inside w.
func (m *MemoryStore) CountApplied(_ context.Context, profileID string, w quota.Window) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return quota.CountApplied(m.events[profileID], w), nil
}

// ProcessedJobIDs returns every job ID the profile has an event for.
func (m *MemoryStore) ProcessedJobIDs(_ context.Context, profileID string) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make(map[string]struct{})
	for _, e := range m.events[profileID] {
		ids[e.JobID] = struct{}{}
	}
	return ids, nil
}

// SaveRun appends the run and its events.
func (m *MemoryStore) SaveRun(_ context.Context, run *db.Run, events []types.ApplicationEvent) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	m.events[run.ProfileID] = append(m.events[run.ProfileID], types.CloneEvents(events)...)
	return nil
}

// ListEvents mirrors db.DB.ListEvents. RunID is ignored since events are not
// indexed by run here. Without a profile ID, events of all profiles are returned
// in timestamp order.
func (m *MemoryStore) ListEvents(_ context.Context, f db.EventFilter) ([]types.ApplicationEvent, error) {
	m.mu.Lock()
	var candidates []types.ApplicationEvent
	if f.ProfileID != "" {
		candidates = append(candidates, m.events[f.ProfileID]...)
	} else {
		for _, events := range m.events {
			candidates = append(candidates, events...)
		}
	}
	m.mu.Unlock()

	if f.ProfileID == "" {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Timestamp.Before(candidates[j].Timestamp)
		})
	}

	limit := f.Limit
	if limit <= 0 {
		limit = db.DefaultEventLimit
	}
	out := make([]types.ApplicationEvent, 0, min(limit, len(candidates)))
	for _, e := range candidates {
		if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && !e.Timestamp.Before(f.Until) {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, e.Clone())
	}
	return out, nil
}

// Runs returns a copy of the saved run records in save order.
func (m *MemoryStore) Runs() []db.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]db.Run, len(m.runs))
	copy(out, m.runs)
	return out
}

// Events returns a copy of the profile's saved events.
func (m *MemoryStore) Events(profileID string) []types.ApplicationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return types.CloneEvents(m.events[profileID])
}
