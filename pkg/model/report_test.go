package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNewStageReport verifies the drop count is derived from the row delta.
func TestNewStageReport(t *testing.T) {
	r := NewStageReport("run-1", "row_filter", 100, 80, "")

	assert.Equal(t, 20, r.RowsDropped)
	assert.False(t, r.Timestamp.IsZero())
}

// TestRunReport_Trail verifies the run report accumulates its audit trail.
func TestRunReport_Trail(t *testing.T) {
	r := NewRunReport()
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, 0, r.RowsRemaining())

	r.AddStage(NewStageReport(r.ID, "row_filter", 100, 80, ""))
	r.AddStage(NewStageReport(r.ID, "composite_score", 80, 70, ""))
	assert.Equal(t, 70, r.RowsRemaining())

	r.MarkFetched("DEMO_L")
	r.MarkFailed("DPQ_L", errors.New("unreachable"))
	r.AddWarning("module DPQ_L skipped")
	assert.Equal(t, []string{"DEMO_L"}, r.ModulesFetched)
	assert.Len(t, r.ModulesFailed, 1)
	assert.Len(t, r.Warnings, 1)

	r.Complete()
	assert.False(t, r.EndTime.IsZero())
	assert.GreaterOrEqual(t, r.Duration.Nanoseconds(), int64(0))
}

// TestDefaultModules verifies the configured merge order and shared key.
func TestDefaultModules(t *testing.T) {
	modules := DefaultModules()

	names := make([]string, len(modules))
	for i, m := range modules {
		names[i] = m.Name
		assert.Equal(t, RespondentKey, m.KeyColumn)
	}
	assert.Equal(t, []string{"DEMO_L", "DPQ_L", "HIQ_L", "HUQ_L", "DLQ_L"}, names)
}
