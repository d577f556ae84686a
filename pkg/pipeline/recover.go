package pipeline

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
)

// RecoverDemo re-attaches demographics to the merged raw table for
// respondents that survive the eligibility and score-completeness filters.
// It returns two tables: the as-filtered table with demographics joined
// back on the respondent identifier, and a second copy with curation and
// the modeling recode applied. Demographic columns already present in the
// merged table are not joined twice.
func RecoverDemo(merged, demo dataframe.DataFrame, key string) (ul, sl dataframe.DataFrame, err error) {
	filter := DefaultRowFilter()
	eligible, err := filter.Eligible(merged)
	if err != nil {
		return ul, sl, fmt.Errorf("eligibility filter: %w", err)
	}

	deriver := DefaultScoreDeriver()
	complete, err := deriver.CompleteOnly(eligible)
	if err != nil {
		return ul, sl, fmt.Errorf("score-completeness filter: %w", err)
	}

	if !hasColumn(demo, key) {
		return ul, sl, fmt.Errorf("demographics table: %w (%s)", ErrMissingKey, key)
	}

	// Join only the demographic columns the merged table does not already
	// carry; a full join would collide on every shared column.
	extra := []string{key}
	for _, col := range demo.Names() {
		if col != key && !hasColumn(complete, col) {
			extra = append(extra, col)
		}
	}

	ul = complete
	if len(extra) > 1 {
		ul = complete.LeftJoin(demo.Select(extra), key)
		if ul.Err != nil {
			return ul, sl, fmt.Errorf("demographic join failed: %w", ul.Err)
		}
	}

	// The modeling copy is curated first so the recode rules bind to the
	// human-readable labels they are declared against.
	sl, err = DefaultCurator().Apply(ul)
	if err != nil {
		return ul, sl, fmt.Errorf("curation: %w", err)
	}

	sl, err = DefaultScoreDeriver().Apply(sl)
	if err != nil {
		return ul, sl, fmt.Errorf("scoring: %w", err)
	}

	sl, err = DefaultRecoder().Apply(sl)
	if err != nil {
		return ul, sl, fmt.Errorf("recode: %w", err)
	}

	return ul, sl, nil
}
