package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/jonathan/job-autopilot/internal/pipeline"
)

// SSE event names on /run/stream.
const (
	eventProgress = "progress"
	eventResult   = "result"
	eventError    = "error"
	eventComplete = "complete"
)

// Final run stream statuses.
const (
	streamCompleted           = "completed"
	streamCompletedWithErrors = "completed_with_errors"
)

var errStreamingUnsupported = errors.New("streaming not supported")

// SSEWriter streams pipeline progress as Server-Sent Events. Progress callbacks
// from profiles running in parallel share one writer, so frames are serialized.
type SSEWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter sets the event-stream headers on w.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends one frame with a JSON payload.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteProgress forwards a pipeline step.
func (s *SSEWriter) WriteProgress(e pipeline.ProgressEvent) error {
	return s.WriteEvent(eventProgress, e)
}

// WriteResult sends the outcome of one profile.
func (s *SSEWriter) WriteResult(res *pipeline.Result) error {
	return s.WriteEvent(eventResult, newRunResult(res))
}

// WriteError reports a run error. The stream stays open for the complete frame.
func (s *SSEWriter) WriteError(message string) error {
	return s.WriteEvent(eventError, map[string]string{"error": message})
}

type completeFrame struct {
	Profiles int    `json:"profiles"`
	Status   string `json:"status"`
}

// WriteComplete ends the stream with the number of profiles processed.
func (s *SSEWriter) WriteComplete(status string, profiles int) error {
	return s.WriteEvent(eventComplete, completeFrame{Profiles: profiles, Status: status})
}
