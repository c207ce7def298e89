package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/job-autopilot/internal/db"
	"github.com/jonathan/job-autopilot/internal/logger"
	"github.com/jonathan/job-autopilot/internal/pipeline"
	"github.com/jonathan/job-autopilot/internal/types"
)

// RunRequest represents the request body for /run. An empty body or profile ID
// runs every configured profile.
type RunRequest struct {
	ProfileID string `json:"profile_id,omitempty"`
}

// RunResult is one profile outcome in a RunResponse.
type RunResult struct {
	*pipeline.Result
	Error string `json:"error,omitempty"`
}

// RunResponse represents the response for /run
type RunResponse struct {
	Results []RunResult `json:"results"`
}

// ApplicationsResponse represents the response for /applications
type ApplicationsResponse struct {
	Applications []types.ApplicationEvent `json:"applications"`
	Summary      types.RunSummary         `json:"summary"`
}

// HealthResponse represents the response for /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Portal   string `json:"portal"`
}

func newRunResult(res *pipeline.Result) RunResult {
	out := RunResult{Result: res}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// decodeRunRequest accepts an empty body.
func decodeRunRequest(r *http.Request) (RunRequest, error) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, &ErrValidation{Field: "body", Message: err.Error()}
	}
	return req, nil
}

// selectProfiles loads the profiles and narrows them to id when set.
func (s *Server) selectProfiles(ctx context.Context, id string) ([]*types.Profile, error) {
	profiles, err := s.profiles(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return profiles, nil
	}
	for _, p := range profiles {
		if p != nil && p.StudentID == id {
			return []*types.Profile{p}, nil
		}
	}
	return nil, &ErrProfileNotFound{ProfileID: id}
}

// handleRun runs one or all profiles and returns their results
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	profiles, err := s.selectProfiles(r.Context(), req.ProfileID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	if req.ProfileID != "" {
		res, err := s.runner.RunProfile(r.Context(), profiles[0], db.TriggerAPI)
		if err != nil {
			s.log.Warn("api run failed", logger.ProfileID(req.ProfileID), logger.Error(err))
			res.Err = err
			s.jsonResponse(w, HTTPStatus(err), RunResponse{Results: []RunResult{newRunResult(res)}})
			return
		}
		s.jsonResponse(w, http.StatusOK, RunResponse{Results: []RunResult{newRunResult(res)}})
		return
	}

	results, err := s.runner.RunAll(r.Context(), profiles, db.TriggerAPI)
	if err != nil {
		s.log.Warn("api run finished with errors", logger.Error(err))
	}
	resp := RunResponse{Results: make([]RunResult, 0, len(results))}
	for _, res := range results {
		resp.Results = append(resp.Results, newRunResult(res))
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleRunStream runs one or all profiles and streams progress via SSE
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	profiles, err := s.selectProfiles(r.Context(), req.ProfileID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	runner := s.runner.WithProgressFunc(func(event pipeline.ProgressEvent) {
		if err := sse.WriteProgress(event); err != nil {
			s.log.Debug("progress frame dropped", logger.ProfileID(event.ProfileID), logger.Error(err))
		}
	})

	results, runErr := runner.RunAll(r.Context(), profiles, db.TriggerAPI)
	for _, res := range results {
		if err := sse.WriteResult(res); err != nil {
			s.log.Warn("failed to write result frame", logger.Error(err))
			return
		}
	}

	status := streamCompleted
	if runErr != nil {
		status = streamCompletedWithErrors
		_ = sse.WriteError(runErr.Error())
	}
	_ = sse.WriteComplete(status, len(results))
}

// handleApplications lists recorded events, optionally narrowed by profile_id,
// since (RFC 3339) and limit
func (s *Server) handleApplications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := db.EventFilter{ProfileID: q.Get("profile_id")}

	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = since
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	events, err := s.history.ListEvents(r.Context(), filter)
	if err != nil {
		s.log.Error("failed to list applications", logger.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to list applications")
		return
	}
	if events == nil {
		events = []types.ApplicationEvent{}
	}
	s.jsonResponse(w, http.StatusOK, ApplicationsResponse{
		Applications: events,
		Summary:      types.SummarizeEvents(events),
	})
}

// handleHealth reports database and portal reachability
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "disabled", Portal: "disabled"}
	status := http.StatusOK

	if s.database != nil {
		resp.Database = "ok"
		if err := s.database.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "error: " + err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	if s.portal != nil {
		if portalStatus, err := s.portal.Status(ctx); err != nil {
			resp.Portal = "unreachable"
		} else {
			resp.Portal = portalStatus
		}
	}

	s.jsonResponse(w, status, resp)
}
