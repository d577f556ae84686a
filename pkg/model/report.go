// pkg/model/report.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// StageReport records the row-count delta of one pipeline stage. Data-quality
// exclusions are expected and silent; the delta is their only audit trail.
type StageReport struct {
	RunID       string
	Stage       string
	RowsIn      int
	RowsOut     int
	RowsDropped int
	Note        string
	Timestamp   time.Time
}

// NewStageReport creates a stage report with the drop count derived from the
// in/out row counts.
func NewStageReport(runID, stage string, rowsIn, rowsOut int, note string) StageReport {
	return StageReport{
		RunID:       runID,
		Stage:       stage,
		RowsIn:      rowsIn,
		RowsOut:     rowsOut,
		RowsDropped: rowsIn - rowsOut,
		Note:        note,
		Timestamp:   time.Now(),
	}
}

// RunReport aggregates the outcome of one full pipeline run.
type RunReport struct {
	ID             string
	Stages         []StageReport
	ModulesFetched []string
	ModulesFailed  map[string]error
	Warnings       []string
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}

// NewRunReport initializes a run report with a fresh run identifier.
func NewRunReport() *RunReport {
	return &RunReport{
		ID:             uuid.New().String(),
		Stages:         make([]StageReport, 0),
		ModulesFetched: make([]string, 0),
		ModulesFailed:  make(map[string]error),
		Warnings:       make([]string, 0),
		StartTime:      time.Now(),
	}
}

// Complete marks the run as finished and calculates its duration.
func (r *RunReport) Complete() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

// AddStage appends a stage report to the run.
func (r *RunReport) AddStage(s StageReport) {
	r.Stages = append(r.Stages, s)
}

// AddWarning appends a warning message to the run.
func (r *RunReport) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// MarkFetched records a module whose extract was fetched and decoded.
func (r *RunReport) MarkFetched(module string) {
	r.ModulesFetched = append(r.ModulesFetched, module)
}

// MarkFailed records a module whose fetch failed, with the cause.
func (r *RunReport) MarkFailed(module string, err error) {
	r.ModulesFailed[module] = err
}

// RowsRemaining returns the row count after the last recorded stage, or
// zero when no stage has run.
func (r *RunReport) RowsRemaining() int {
	if len(r.Stages) == 0 {
		return 0
	}
	return r.Stages[len(r.Stages)-1].RowsOut
}
