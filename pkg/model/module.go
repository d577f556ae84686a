// pkg/model/module.go
package model

// SurveyModule describes one thematic questionnaire section of the survey,
// distributed as a separate source file keyed by the respondent identifier.
type SurveyModule struct {
	Name        string // File identifier at the remote source (e.g. "DEMO_L")
	Description string // Human-readable module description
	KeyColumn   string // Respondent identifier column, present in every module
}

// RespondentKey is the identifier column linking rows across survey modules.
// It is forced to string on every read and write so large identifiers never
// lose precision through float round-trips.
const RespondentKey = "SEQN"

// DefaultModules returns the survey modules consumed by the pipeline, in
// merge order. The order is fixed so the merged column layout is
// reproducible from run to run.
func DefaultModules() []SurveyModule {
	return []SurveyModule{
		{Name: "DEMO_L", Description: "Demographics", KeyColumn: RespondentKey},
		{Name: "DPQ_L", Description: "Depression screener", KeyColumn: RespondentKey},
		{Name: "HIQ_L", Description: "Health insurance", KeyColumn: RespondentKey},
		{Name: "HUQ_L", Description: "Healthcare access and utilization", KeyColumn: RespondentKey},
		{Name: "DLQ_L", Description: "Disability and functioning", KeyColumn: RespondentKey},
	}
}
