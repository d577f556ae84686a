// pkg/feature/income.go

// Package feature attaches externally sourced reference features to the
// cleaned table. The only feature currently derived is a median household
// income per demographic group (race, gender, education bucket).
package feature

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"
)

// Reference table column names.
const (
	RaceColumn      = "race"
	GenderColumn    = "gender"
	EducationColumn = "education"
	IncomeColumn    = "income"
)

// Clean-table column names the lookup keys match against, and the name of
// the appended feature.
const (
	TargetRaceColumn      = "Race/Hispanic origin w/ NH Asian"
	TargetGenderColumn    = "Gender"
	TargetEducationColumn = "Education level - Adults 20+"
	MedianIncomeColumn    = "Median household income"
)

// GroupKey identifies one demographic group. Keys are compared as the
// string form of the underlying codes, so integer and float renderings of
// the same code must agree between the reference table and the target.
type GroupKey struct {
	Race      string
	Gender    string
	Education string
}

// IncomeLookup holds the median income per demographic group.
type IncomeLookup struct {
	medians map[GroupKey]float64
}

// LoadIncomeTable reads the external income reference CSV and aggregates
// it to a median per demographic group.
func LoadIncomeTable(path string) (*IncomeLookup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open income table %s: %w", path, err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true))
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse income table %s: %w", path, df.Err)
	}

	return NewIncomeLookup(df)
}

// NewIncomeLookup aggregates a reference table with race, gender,
// education, and income columns into per-group medians.
func NewIncomeLookup(df dataframe.DataFrame) (*IncomeLookup, error) {
	for _, col := range []string{RaceColumn, GenderColumn, EducationColumn, IncomeColumn} {
		if !hasColumn(df, col) {
			return nil, fmt.Errorf("income table missing column %s", col)
		}
	}

	races := df.Col(RaceColumn).Records()
	genders := df.Col(GenderColumn).Records()
	educations := df.Col(EducationColumn).Records()
	incomes := df.Col(IncomeColumn).Float()

	grouped := make(map[GroupKey][]float64)
	for i := 0; i < df.Nrow(); i++ {
		if math.IsNaN(incomes[i]) {
			continue
		}
		key := GroupKey{Race: races[i], Gender: genders[i], Education: educations[i]}
		grouped[key] = append(grouped[key], incomes[i])
	}

	medians := make(map[GroupKey]float64, len(grouped))
	for key, vals := range grouped {
		sort.Float64s(vals)
		medians[key] = stat.Quantile(0.5, stat.Empirical, vals, nil)
	}

	return &IncomeLookup{medians: medians}, nil
}

// Median returns the median income for a group, with ok reporting whether
// the group exists in the reference table.
func (l *IncomeLookup) Median(key GroupKey) (float64, bool) {
	v, ok := l.medians[key]
	return v, ok
}

// Attach appends the median-income feature to the cleaned table, matching
// on the race, gender, and education columns. Rows whose group is absent
// from the reference table get a missing value, not zero: the feature is
// appended before the modeling recode and its fill policy.
func (l *IncomeLookup) Attach(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	for _, col := range []string{TargetRaceColumn, TargetGenderColumn, TargetEducationColumn} {
		if !hasColumn(df, col) {
			return df, fmt.Errorf("target table missing column %s", col)
		}
	}

	races := df.Col(TargetRaceColumn).Records()
	genders := df.Col(TargetGenderColumn).Records()
	educations := df.Col(TargetEducationColumn).Records()

	out := make([]float64, df.Nrow())
	for i := range out {
		key := GroupKey{Race: races[i], Gender: genders[i], Education: educations[i]}
		if median, ok := l.medians[key]; ok {
			out[i] = median
		} else {
			out[i] = math.NaN()
		}
	}

	df = df.Mutate(series.New(out, series.Float, MedianIncomeColumn))
	if df.Err != nil {
		return df, fmt.Errorf("failed to append %s: %w", MedianIncomeColumn, df.Err)
	}

	return df, nil
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, col := range df.Names() {
		if col == name {
			return true
		}
	}
	return false
}
