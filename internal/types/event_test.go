package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_FieldRetention(t *testing.T) {
	tests := []struct {
		status  Status
		reason  bool
		receipt bool
		applied bool
	}{
		{StatusQueued, false, false, false},
		{StatusSkipped, true, false, false},
		{StatusSubmitted, false, true, true},
		{StatusFailed, true, false, false},
		{StatusRetried, false, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.True(t, tt.status.Valid())
			assert.Equal(t, tt.reason, tt.status.CarriesReason())
			assert.Equal(t, tt.receipt, tt.status.CarriesReceipt())
			assert.Equal(t, tt.applied, tt.status.IsApplied())
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("retried")
	assert.NoError(t, err)
	assert.Equal(t, StatusRetried, s)

	_, err = ParseStatus("approved")
	assert.Error(t, err)
}

func TestClone_DoesNotShareOptionalFields(t *testing.T) {
	reason, receipt := "blocked", "RCP-1"
	orig := ApplicationEvent{JobID: "j1", Status: StatusSkipped, Reason: &reason, ReceiptID: &receipt}

	c := orig.Clone()
	*c.Reason = "changed"
	*c.ReceiptID = "changed"

	assert.Equal(t, "blocked", orig.ReasonText())
	assert.Equal(t, "RCP-1", orig.Receipt())

	empty := ApplicationEvent{JobID: "j2", Status: StatusQueued}.Clone()
	assert.Nil(t, empty.Reason)
	assert.Nil(t, empty.ReceiptID)

	list := CloneEvents([]ApplicationEvent{orig})
	*list[0].Reason = "again"
	assert.Equal(t, "blocked", orig.ReasonText())
}

func TestSummarizeEvents(t *testing.T) {
	events := []ApplicationEvent{
		{JobID: "j1", Status: StatusQueued},
		{JobID: "j1", Status: StatusSubmitted},
		{JobID: "j2", Status: StatusQueued},
		{JobID: "j2", Status: StatusSkipped},
		{JobID: "j3", Status: StatusQueued},
		{JobID: "j3", Status: StatusRetried},
		{JobID: "j4", Status: StatusQueued},
		{JobID: "j4", Status: StatusFailed},
	}

	s := SummarizeEvents(events)
	assert.Equal(t, RunSummary{Queued: 4, Skipped: 1, Submitted: 1, Retried: 1, Failed: 1}, s)
	assert.Equal(t, 2, s.Applied())
}

func TestConstraints_IsBlocked(t *testing.T) {
	c := &Constraints{BlockedCompanies: []string{"Initech"}}
	assert.True(t, c.IsBlocked("Initech"))
	assert.False(t, c.IsBlocked("Acme"))
}
