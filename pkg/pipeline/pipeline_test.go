package pipeline

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rkeller-lab/deprisk/pkg/model"
)

// captureRecorder collects stage reports in memory.
type captureRecorder struct {
	reports []model.StageReport
}

func (c *captureRecorder) RecordStage(report model.StageReport) error {
	c.reports = append(c.reports, report)
	return nil
}

// failingStage always errors.
type failingStage struct{}

func (failingStage) Name() string { return "boom" }
func (failingStage) Apply(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	return df, errors.New("induced failure")
}

// surveyFixture builds a merged-table fixture with four respondents:
//
//	1: adult, all nine items answered (total 27)
//	2: minor, filtered by eligibility
//	3: adult, six valid items (total 6)
//	4: adult, four valid items, removed by the completeness threshold
func surveyFixture() dataframe.DataFrame {
	nan := math.NaN()
	cols := []series.Series{
		series.New([]string{"1", "2", "3", "4"}, series.String, "SEQN"),
		series.New([]float64{25, 16, 40, 30}, series.Float, "RIDAGEYR"),
		series.New([]float64{2, 2, 2, 2}, series.Float, "RIDSTATR"),
		series.New([]float64{2, 1, 1, 2}, series.Float, "RIAGENDR"),
		series.New([]float64{1, 2, 1, 2}, series.Float, "HIQ011"),
		series.New([]float64{1.5, 1.5, 1.5, 1.5}, series.Float, "WTINT2YR"),
	}

	itemValues := map[string][4]float64{
		"DPQ010": {3, 0, 1, 0},
		"DPQ020": {3, 0, 1, 1},
		"DPQ030": {3, 0, 1, 2},
		"DPQ040": {3, 0, 1, 3},
		"DPQ050": {3, 0, 1, nan},
		"DPQ060": {3, 0, 1, nan},
		"DPQ070": {3, 0, nan, nan},
		"DPQ080": {3, 0, nan, nan},
		"DPQ090": {3, 0, nan, nan},
	}
	for _, item := range PHQItems {
		v := itemValues[item]
		cols = append(cols, series.New([]float64{v[0], v[1], v[2], v[3]}, series.Float, item))
	}

	return dataframe.New(cols...)
}

// TestRunner_CleanStages verifies the configured stage order produces the
// expected survivors and that every stage's row delta is recorded.
func TestRunner_CleanStages(t *testing.T) {
	recorder := &captureRecorder{}
	runner := NewRunner(CleanStages(), recorder, zap.NewNop())
	report := model.NewRunReport()

	out, err := runner.Run(surveyFixture(), report)
	require.NoError(t, err)

	// Respondent 2 is a minor, respondent 4 fails the completeness
	// threshold; 1 and 3 survive.
	assert.Equal(t, []string{"1", "3"}, out.Col("SEQN").Records())
	assert.Equal(t, []float64{27, 6}, out.Col(TotalScoreColumn).Float())

	// Curation renamed and dropped.
	assert.False(t, hasColumn(out, "RIAGENDR"))
	assert.True(t, hasColumn(out, "Gender"))
	assert.False(t, hasColumn(out, "WTINT2YR"))
	assert.False(t, hasColumn(out, "RIDSTATR"))

	require.Len(t, recorder.reports, 3)
	assert.Equal(t, "row_filter", recorder.reports[0].Stage)
	assert.Equal(t, 4, recorder.reports[0].RowsIn)
	assert.Equal(t, 3, recorder.reports[0].RowsOut)
	assert.Equal(t, "composite_score", recorder.reports[1].Stage)
	assert.Equal(t, 1, recorder.reports[1].RowsDropped)
	assert.Equal(t, "column_curator", recorder.reports[2].Stage)
	assert.Equal(t, 0, recorder.reports[2].RowsDropped)

	// The run report carries the same trail.
	assert.Equal(t, 2, report.RowsRemaining())
}

// TestRunner_ModelStages verifies the recode stage over a curated table.
func TestRunner_ModelStages(t *testing.T) {
	recorder := &captureRecorder{}
	cleanRunner := NewRunner(CleanStages(), recorder, zap.NewNop())
	report := model.NewRunReport()

	clean, err := cleanRunner.Run(surveyFixture(), report)
	require.NoError(t, err)

	modelRunner := NewRunner(ModelStages(), recorder, zap.NewNop())
	out, err := modelRunner.Run(clean, report)
	require.NoError(t, err)

	// Gender recoded 2->1, 1->0; insurance yes/no 1->1.
	assert.Equal(t, []float64{1, 0}, out.Col("Gender").Float())
	assert.Equal(t, []float64{1, 1}, out.Col("Covered by health insurance").Float())

	// Recode changes no row counts.
	last := recorder.reports[len(recorder.reports)-1]
	assert.Equal(t, "modeling_recode", last.Stage)
	assert.Equal(t, 0, last.RowsDropped)
}

// TestRunner_StageErrorAborts verifies a stage failure stops the run and
// keeps the reports of the stages already applied.
func TestRunner_StageErrorAborts(t *testing.T) {
	recorder := &captureRecorder{}
	runner := NewRunner([]Stage{DefaultRowFilter(), failingStage{}}, recorder, zap.NewNop())
	report := model.NewRunReport()

	_, err := runner.Run(surveyFixture(), report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, recorder.reports, 1, "the stage before the failure keeps its audit record")
}

// TestRecoverDemo verifies the demographic re-attachment flow: eligible,
// score-complete respondents keep their rows, missing demographic columns
// are joined back, and the modeling copy is scored and curated.
func TestRecoverDemo(t *testing.T) {
	merged := surveyFixture()
	demo := dataframe.New(
		series.New([]string{"1", "2", "3", "4"}, series.String, "SEQN"),
		series.New([]float64{2, 4, 1, 3}, series.Float, "DMDHHSIZ"),
	)

	ul, sl, err := RecoverDemo(merged, demo, "SEQN")
	require.NoError(t, err)

	// Respondents 1 and 3 survive eligibility plus completeness.
	assert.Equal(t, []string{"1", "3"}, ul.Col("SEQN").Records())
	assert.True(t, hasColumn(ul, "DMDHHSIZ"), "missing demographics must be joined back")
	assert.True(t, hasColumn(ul, "DPQ010"), "the as-filtered copy keeps raw items")

	assert.True(t, hasColumn(sl, TotalScoreColumn))
	assert.False(t, hasColumn(sl, "DPQ010"), "the modeling copy consumes the items")
	assert.Equal(t, []float64{1, 0}, sl.Col("Gender").Float())
}
