package pipeline

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ScoreDeriver computes a composite score from a fixed battery of item
// columns. A row needs at least MinValid items inside the valid domain to
// survive; rows below the threshold are removed outright rather than scored
// as partial. Item values outside the domain count as missing, not zero, so
// the stored total is the sum of exactly the valid items. The total is not
// normalized for differing valid-item counts, matching the source study's
// scoring.
//
// This stage must run while the raw item columns are still present: it
// consumes them, appends the total, and drops the items afterwards.
type ScoreDeriver struct {
	Items        []string
	ValidValues  []float64
	MinValid     int
	OutputColumn string
}

// Name implements Stage.
func (s ScoreDeriver) Name() string { return "composite_score" }

// Apply implements Stage.
func (s ScoreDeriver) Apply(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	counts, sums, err := s.tally(df)
	if err != nil {
		return df, err
	}

	nrow := df.Nrow()
	keep := make([]bool, nrow)
	scores := make([]int, 0, nrow)
	for i := 0; i < nrow; i++ {
		if counts[i] >= s.MinValid {
			keep[i] = true
			scores = append(scores, sums[i])
		}
	}

	scored := df.Subset(keep)
	if scored.Err != nil {
		return df, fmt.Errorf("score-completeness subset failed: %w", scored.Err)
	}

	scored = scored.Mutate(series.New(scores, series.Int, s.OutputColumn))
	if scored.Err != nil {
		return df, fmt.Errorf("appending %s failed: %w", s.OutputColumn, scored.Err)
	}

	scored = scored.Drop(s.Items)
	if scored.Err != nil {
		return df, fmt.Errorf("dropping score items failed: %w", scored.Err)
	}

	return scored, nil
}

// CompleteOnly subsets to the rows meeting the validity-count threshold
// without scoring them or touching the item columns.
func (s ScoreDeriver) CompleteOnly(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	counts, _, err := s.tally(df)
	if err != nil {
		return df, err
	}

	keep := make([]bool, df.Nrow())
	for i := range keep {
		keep[i] = counts[i] >= s.MinValid
	}

	complete := df.Subset(keep)
	if complete.Err != nil {
		return df, fmt.Errorf("score-completeness subset failed: %w", complete.Err)
	}

	return complete, nil
}

// tally counts, per row, how many items fall in the valid domain and sums
// those valid items' values.
func (s ScoreDeriver) tally(df dataframe.DataFrame) (counts, sums []int, err error) {
	for _, item := range s.Items {
		if !hasColumn(df, item) {
			return nil, nil, fmt.Errorf("score item column %s not present in table", item)
		}
	}

	valid := make(map[float64]struct{}, len(s.ValidValues))
	for _, v := range s.ValidValues {
		valid[v] = struct{}{}
	}

	nrow := df.Nrow()
	counts = make([]int, nrow)
	sums = make([]int, nrow)

	for _, item := range s.Items {
		col := df.Col(item)
		for i := 0; i < nrow; i++ {
			elem := col.Elem(i)
			if elem.IsNA() {
				continue
			}
			v := elem.Float()
			if _, ok := valid[v]; ok {
				counts[i]++
				sums[i] += int(v)
			}
		}
	}

	return counts, sums, nil
}
