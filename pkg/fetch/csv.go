// pkg/fetch/csv.go
package fetch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// LoadCSV reads a delimited intermediate table, forcing the key column to
// string type. Every persisted table in the pipeline goes through this so
// identifiers never re-enter as floats.
func LoadCSV(path, keyColumn string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.WithTypes(map[string]series.Type{keyColumn: series.String}),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to parse %s: %w", path, df.Err)
	}

	return df, nil
}

// WriteCSV persists a table with a header row, creating the parent
// directory when needed.
func WriteCSV(df dataframe.DataFrame, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := df.WriteCSV(f, dataframe.WriteHeader(true)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
