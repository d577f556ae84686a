package pipeline

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Recoder maps raw categorical codes into the small-integer encodings the
// classifiers consume directly, without one-hot expansion. Three rules
// apply, then a fill-and-cast sweep:
//
//   - yes/no columns: code 1 stays 1, code 2 becomes 0, anything else
//     (including missing) becomes missing until the fill step;
//   - presence-indicator columns: any recorded value becomes 1 regardless
//     of magnitude, missing becomes 0;
//   - explicitly mapped columns: recoded through a fixed enumerated map.
//
// The final sweep fills remaining missing values with 0 and casts to
// integer over a fixed column list. Zero is thereby overloaded as both a
// legitimate recoded category and "unknown"; the source study models it
// that way and this stage reproduces it rather than introducing a distinct
// missing indicator.
//
// Every rule silently skips columns absent from the table, so the same
// recoder serves the full pipeline and the demographic re-attachment flow.
type Recoder struct {
	YesNoColumns    []string
	PresenceColumns []string
	ValueMaps       map[string]map[float64]float64
	PostDrop        []string
	FillZeroInt     []string
}

// Name implements Stage.
func (r Recoder) Name() string { return "modeling_recode" }

// Apply implements Stage.
func (r Recoder) Apply(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	var err error

	for _, col := range r.YesNoColumns {
		df, err = r.recodeYesNo(df, col)
		if err != nil {
			return df, err
		}
	}

	for _, col := range r.PresenceColumns {
		df, err = r.recodePresence(df, col)
		if err != nil {
			return df, err
		}
	}

	for col, mapping := range r.ValueMaps {
		df, err = r.recodeMapped(df, col, mapping)
		if err != nil {
			return df, err
		}
	}

	present := make([]string, 0, len(r.PostDrop))
	for _, col := range r.PostDrop {
		if hasColumn(df, col) {
			present = append(present, col)
		}
	}
	if len(present) > 0 {
		df = df.Drop(present)
		if df.Err != nil {
			return df, fmt.Errorf("post-recode drop failed: %w", df.Err)
		}
	}

	for _, col := range r.FillZeroInt {
		df, err = r.fillZeroAndCast(df, col)
		if err != nil {
			return df, err
		}
	}

	return df, nil
}

// recodeYesNo maps code 1 to 1 and code 2 to 0; other values become missing.
func (r Recoder) recodeYesNo(df dataframe.DataFrame, col string) (dataframe.DataFrame, error) {
	if !hasColumn(df, col) {
		return df, nil
	}

	src := df.Col(col)
	out := make([]float64, df.Nrow())
	for i := range out {
		elem := src.Elem(i)
		switch {
		case elem.IsNA():
			out[i] = math.NaN()
		case elem.Float() == 1:
			out[i] = 1
		case elem.Float() == 2:
			out[i] = 0
		default:
			out[i] = math.NaN()
		}
	}

	df = df.Mutate(series.New(out, series.Float, col))
	if df.Err != nil {
		return df, fmt.Errorf("yes/no recode of %s failed: %w", col, df.Err)
	}
	return df, nil
}

// recodePresence collapses any recorded value to 1 and missing to 0.
func (r Recoder) recodePresence(df dataframe.DataFrame, col string) (dataframe.DataFrame, error) {
	if !hasColumn(df, col) {
		return df, nil
	}

	src := df.Col(col)
	out := make([]int, df.Nrow())
	for i := range out {
		if !src.Elem(i).IsNA() {
			out[i] = 1
		}
	}

	df = df.Mutate(series.New(out, series.Int, col))
	if df.Err != nil {
		return df, fmt.Errorf("presence recode of %s failed: %w", col, df.Err)
	}
	return df, nil
}

// recodeMapped recodes through an explicit enumerated map; unmapped values
// become missing.
func (r Recoder) recodeMapped(df dataframe.DataFrame, col string, mapping map[float64]float64) (dataframe.DataFrame, error) {
	if !hasColumn(df, col) {
		return df, nil
	}

	src := df.Col(col)
	out := make([]float64, df.Nrow())
	for i := range out {
		elem := src.Elem(i)
		if elem.IsNA() {
			out[i] = math.NaN()
			continue
		}
		if mapped, ok := mapping[elem.Float()]; ok {
			out[i] = mapped
		} else {
			out[i] = math.NaN()
		}
	}

	df = df.Mutate(series.New(out, series.Float, col))
	if df.Err != nil {
		return df, fmt.Errorf("mapped recode of %s failed: %w", col, df.Err)
	}
	return df, nil
}

// fillZeroAndCast replaces missing values with 0 and casts the column to
// integer.
func (r Recoder) fillZeroAndCast(df dataframe.DataFrame, col string) (dataframe.DataFrame, error) {
	if !hasColumn(df, col) {
		return df, nil
	}

	src := df.Col(col)
	out := make([]int, df.Nrow())
	for i := range out {
		elem := src.Elem(i)
		if elem.IsNA() {
			continue
		}
		out[i] = int(elem.Float())
	}

	df = df.Mutate(series.New(out, series.Int, col))
	if df.Err != nil {
		return df, fmt.Errorf("fill-and-cast of %s failed: %w", col, df.Err)
	}
	return df, nil
}
