package tracker

import (
	"strings"

	"github.com/jonathan/job-autopilot/internal/types"
)

// TimeLayout is the UTC timestamp layout used in audit lines.
const TimeLayout = "2006-01-02 15:04:05 UTC"

var lineSanitizer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// FormatLine renders an event as a single tab-separated audit line ending in a newline:
//
//	job_id=J1	status=skipped	time='2026-10-15 09:00:00 UTC'	reason='...'
func FormatLine(e types.ApplicationEvent) string {
	parts := []string{
		"job_id=" + lineSanitizer.Replace(e.JobID),
		"status=" + string(e.Status),
		"time='" + e.Timestamp.UTC().Format(TimeLayout) + "'",
	}
	if e.Reason != nil {
		parts = append(parts, "reason='"+lineSanitizer.Replace(*e.Reason)+"'")
	}
	if e.ReceiptID != nil {
		parts = append(parts, "receipt_id='"+lineSanitizer.Replace(*e.ReceiptID)+"'")
	}
	return strings.Join(parts, "\t") + "\n"
}
