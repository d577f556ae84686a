package pipeline

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
)

// RowFilter removes ineligible respondents and rows carrying reserved
// sentinel codes. Two passes run in a fixed order: the eligibility pass
// keeps rows meeting the age and completion-status requirements (null age
// or status counts as ineligible), then the invalid-code pass vetoes any
// row whose numeric fields contain a sentinel anywhere.
//
// The sentinel check is purely value-based: a column whose legitimate
// domain happens to include a sentinel value (an age of 77, say) still
// triggers the veto. That over-filtering is a carried-over property of the
// source study, not something this stage corrects.
type RowFilter struct {
	AgeColumn      string
	MinAge         float64
	StatusColumn   string
	RequiredStatus float64
	InvalidCodes   []float64
}

// Name implements Stage.
func (f RowFilter) Name() string { return "row_filter" }

// Apply implements Stage. The output has the same columns and fewer rows.
func (f RowFilter) Apply(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	eligible, err := f.Eligible(df)
	if err != nil {
		return df, err
	}

	// Invalid-code pass, cumulative across every numeric column. String
	// columns (the respondent identifier among them) are exempt.
	codes := make(map[float64]struct{}, len(f.InvalidCodes))
	for _, c := range f.InvalidCodes {
		codes[c] = struct{}{}
	}

	keep := make([]bool, eligible.Nrow())
	for i := range keep {
		keep[i] = true
	}

	for _, col := range numericColumns(eligible) {
		values := eligible.Col(col)
		for i := 0; i < eligible.Nrow(); i++ {
			elem := values.Elem(i)
			if elem.IsNA() {
				continue
			}
			if _, flagged := codes[elem.Float()]; flagged {
				keep[i] = false
			}
		}
	}

	filtered := eligible.Subset(keep)
	if filtered.Err != nil {
		return df, fmt.Errorf("invalid-code subset failed: %w", filtered.Err)
	}

	return filtered, nil
}

// Eligible applies only the eligibility pass: age at or above the
// threshold and the required completion status. Null age or status fails
// the comparison, so unknown eligibility means ineligible.
func (f RowFilter) Eligible(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	for _, col := range []string{f.AgeColumn, f.StatusColumn} {
		if !hasColumn(df, col) {
			return df, fmt.Errorf("eligibility column %s not present in table", col)
		}
	}

	ages := df.Col(f.AgeColumn).Float()
	statuses := df.Col(f.StatusColumn).Float()

	mask := make([]bool, df.Nrow())
	for i := range mask {
		mask[i] = ages[i] >= f.MinAge && statuses[i] == f.RequiredStatus
	}

	eligible := df.Subset(mask)
	if eligible.Err != nil {
		return df, fmt.Errorf("eligibility subset failed: %w", eligible.Err)
	}

	return eligible, nil
}
