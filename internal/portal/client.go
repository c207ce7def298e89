// Package portal is the HTTP client for the job portal: listing jobs and
// submitting applications.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonathan/job-autopilot/internal/logger"
	"github.com/jonathan/job-autopilot/internal/types"
)

// DefaultBaseURL is the portal address used when none is configured.
const DefaultBaseURL = "http://localhost:5001"

// DefaultTimeout is the per-request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is sent with every request.
const DefaultUserAgent = "JobAutopilot/1.0"

// StatusActive is the portal status that allows fetching and submitting.
const StatusActive = "active"

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// Error represents an error talking to the portal.
type Error struct {
	Op         string
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("portal %s %s: %s", e.Op, e.URL, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("portal %s %s: HTTP %d: %s", e.Op, e.URL, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Filters narrows a job listing query. Zero values are omitted.
type Filters struct {
	Location        string   `json:"location,omitempty" yaml:"location,omitempty"`
	JobType         string   `json:"job_type,omitempty" yaml:"job_type,omitempty"`
	ExperienceLevel string   `json:"experience_level,omitempty" yaml:"experience_level,omitempty"`
	Company         string   `json:"company,omitempty" yaml:"company,omitempty"`
	Search          string   `json:"search,omitempty" yaml:"search,omitempty"`
	Skills          []string `json:"skills,omitempty" yaml:"skills,omitempty"`
	Limit           int      `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// Query encodes the filters as URL query parameters.
func (f Filters) Query() url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("location", f.Location)
	set("job_type", f.JobType)
	set("experience_level", f.ExperienceLevel)
	set("company", f.Company)
	set("search", f.Search)
	set("skills", strings.Join(f.Skills, ","))
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// Client talks to one portal instance. It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	timeout   time.Duration
	userAgent string
	limiter   *rate.Limiter
	log       logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithRateLimit caps outgoing requests at rps per second with the given burst.
// Non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client for the portal at baseURL. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{Op: "init", URL: baseURL, Message: "invalid base URL", Cause: err}
	}

	c := &Client{
		baseURL:   parsed,
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
		log:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// BaseURL returns the portal address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type statusResponse struct {
	Status string `json:"status"`
}

// Status returns the portal's self-reported status, e.g. "active".
func (c *Client) Status(ctx context.Context) (string, error) {
	var out statusResponse
	if _, err := c.getJSON(ctx, "status", "/api/portal/status", nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// Active reports whether the portal is accepting requests. Errors count as inactive.
func (c *Client) Active(ctx context.Context) bool {
	status, err := c.Status(ctx)
	if err != nil {
		c.log.Warn("portal status check failed", logger.Error(err))
		return false
	}
	return status == StatusActive
}

type jobsResponse struct {
	Success bool               `json:"success"`
	Jobs    []types.JobListing `json:"jobs"`
	Error   string             `json:"error,omitempty"`
}

// FetchJobs lists open jobs matching f.
func (c *Client) FetchJobs(ctx context.Context, f Filters) ([]types.JobListing, error) {
	var out jobsResponse
	u, err := c.getJSON(ctx, "fetch jobs", "/api/jobs", f.Query(), &out)
	if err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &Error{Op: "fetch jobs", URL: u, Message: orUnknown(out.Error)}
	}
	c.log.Info("fetched jobs from portal", logger.Int("count", len(out.Jobs)))
	return out.Jobs, nil
}

type jobResponse struct {
	Success bool              `json:"success"`
	Job     *types.JobListing `json:"job"`
	Error   string            `json:"error,omitempty"`
}

// GetJob returns the listing for jobID.
func (c *Client) GetJob(ctx context.Context, jobID string) (*types.JobListing, error) {
	var out jobResponse
	u, err := c.getJSON(ctx, "get job", "/api/jobs/"+url.PathEscape(jobID), nil, &out)
	if err != nil {
		return nil, err
	}
	if !out.Success || out.Job == nil {
		return nil, &Error{Op: "get job", URL: u, Message: orUnknown(out.Error)}
	}
	return out.Job, nil
}

type applyResponse struct {
	Success       bool   `json:"success"`
	ReceiptID     string `json:"receipt_id"`
	ApplicationID string `json:"application_id"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Submit posts an application. It never returns an error: transport, HTTP and
// decoding problems are reported in the result. Success requires HTTP 200 and
// success=true in the body.
func (c *Client) Submit(ctx context.Context, jobID string, payload types.ApplicationPayload) types.SubmitResult {
	u := c.endpoint("/api/jobs/"+url.PathEscape(jobID)+"/apply", nil)
	fail := func(msg string) types.SubmitResult {
		c.log.Warn("application submission failed",
			logger.JobID(jobID),
			logger.String("error", msg))
		return types.SubmitResult{Error: msg}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fail(fmt.Sprintf("failed to encode payload: %v", err))
	}
	if err := c.wait(ctx); err != nil {
		return fail(fmt.Sprintf("rate limiter: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fail(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(fmt.Sprintf("HTTP request failed: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	var out applyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out); err != nil {
		return fail(fmt.Sprintf("HTTP %d: failed to decode response: %v", resp.StatusCode, err))
	}

	if resp.StatusCode != http.StatusOK || !out.Success {
		return fail(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, orUnknown(out.Error)))
	}

	c.log.Info("application submitted",
		logger.JobID(jobID),
		logger.String("receipt_id", out.ReceiptID),
		logger.String("application_id", out.ApplicationID))
	return types.SubmitResult{
		Success:       true,
		ReceiptID:     out.ReceiptID,
		ApplicationID: out.ApplicationID,
	}
}

// endpoint joins an already escaped path onto the base URL.
func (c *Client) endpoint(escapedPath string, query url.Values) string {
	u := *c.baseURL
	u.RawPath = strings.TrimRight(c.baseURL.EscapedPath(), "/") + escapedPath
	u.Path, _ = url.PathUnescape(u.RawPath)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// getJSON issues a GET and decodes a 200 response into out. It returns the request URL.
func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) (string, error) {
	u := c.endpoint(path, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return u, &Error{Op: op, URL: u, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if err := c.wait(ctx); err != nil {
		return u, &Error{Op: op, URL: u, Message: "rate limiter", Cause: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return u, &Error{Op: op, URL: u, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return u, &Error{Op: op, URL: u, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(snippet))}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return u, &Error{Op: op, URL: u, Message: "failed to decode response", Cause: err}
	}
	return u, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func orUnknown(msg string) string {
	if msg == "" {
		return "Unknown error"
	}
	return msg
}
