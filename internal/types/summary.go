package types

// RunSummary counts the outcomes of one orchestrator invocation.
type RunSummary struct {
	Queued    int `json:"queued"`
	Skipped   int `json:"skipped"`
	Submitted int `json:"submitted"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
}

// Add increments the counter for status.
func (s *RunSummary) Add(status Status) {
	switch status {
	case StatusQueued:
		s.Queued++
	case StatusSkipped:
		s.Skipped++
	case StatusSubmitted:
		s.Submitted++
	case StatusRetried:
		s.Retried++
	case StatusFailed:
		s.Failed++
	}
}

// Applied is the number of submissions that count against the daily quota.
func (s RunSummary) Applied() int {
	return s.Submitted + s.Retried
}

// SummarizeEvents rebuilds a summary by replaying events in order.
func SummarizeEvents(events []ApplicationEvent) RunSummary {
	var s RunSummary
	for _, e := range events {
		s.Add(e.Status)
	}
	return s
}
