// pkg/fetch/decode.go
package fetch

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/kshedden/datareader"
)

// DecodeSAS decodes a SAS binary extract into a DataFrame. The respondent
// identifier column is rendered as a string so large identifiers survive
// CSV round-trips without floating-point precision loss.
func DecodeSAS(r io.ReadSeeker, keyColumn string) (dataframe.DataFrame, error) {
	sas, err := datareader.NewSAS7BDATReader(r)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open SAS reader: %w", err)
	}

	cols, err := sas.Read(-1)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to read SAS data: %w", err)
	}

	return FrameFromSeries(cols, keyColumn)
}

// FrameFromSeries converts decoded statistical series into a DataFrame,
// mapping the reader's missing-value mask onto NaN for numeric columns and
// formatting the key column as a string.
func FrameFromSeries(cols []*datareader.Series, keyColumn string) (dataframe.DataFrame, error) {
	out := make([]series.Series, 0, len(cols))

	for _, col := range cols {
		miss := col.Missing()

		switch data := col.Data().(type) {
		case []float64:
			if col.Name == keyColumn {
				out = append(out, keySeries(col.Name, data, miss))
				continue
			}
			vals := make([]float64, len(data))
			copy(vals, data)
			for i := range vals {
				if miss != nil && miss[i] {
					vals[i] = math.NaN()
				}
			}
			out = append(out, series.New(vals, series.Float, col.Name))

		case []string:
			vals := make([]string, len(data))
			copy(vals, data)
			out = append(out, series.New(vals, series.String, col.Name))

		default:
			return dataframe.DataFrame{}, fmt.Errorf("column %s: unsupported decoded type %T", col.Name, data)
		}
	}

	df := dataframe.New(out...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to assemble frame: %w", df.Err)
	}

	return df, nil
}

// keySeries formats a numeric identifier column as whole-number strings.
func keySeries(name string, data []float64, miss []bool) series.Series {
	vals := make([]string, len(data))
	for i, v := range data {
		if miss != nil && miss[i] {
			continue
		}
		vals[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return series.New(vals, series.String, name)
}
