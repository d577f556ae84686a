package pipeline

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
)

// NamedFrame pairs a module table with the module name it came from, so
// merge errors can say which input broke the contract.
type NamedFrame struct {
	Name  string
	Frame dataframe.DataFrame
}

// Merge combines module tables into one wide table via sequential full
// outer joins on the respondent identifier, left to right in input order.
// Every respondent from every module keeps a row; fields absent from a
// module are null for that module's respondents.
//
// Merge fails fast on broken preconditions: a module without the key
// column, a duplicated identifier within one module (ambiguous join), or a
// non-key column name shared by two modules (the join would silently
// overwrite one of them).
func Merge(key string, tables []NamedFrame) (dataframe.DataFrame, error) {
	if len(tables) == 0 {
		return dataframe.DataFrame{}, ErrNoModules
	}

	// Validate all inputs before joining anything.
	seenColumns := make(map[string]string)
	for _, t := range tables {
		if t.Frame.Err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("module %s: invalid table: %w", t.Name, t.Frame.Err)
		}

		if !hasColumn(t.Frame, key) {
			return dataframe.DataFrame{}, fmt.Errorf("module %s: %w (%s)", t.Name, ErrMissingKey, key)
		}

		if dup := firstDuplicate(t.Frame.Col(key).Records()); dup != "" {
			return dataframe.DataFrame{}, fmt.Errorf("module %s: %w (%s=%s)", t.Name, ErrDuplicateKey, key, dup)
		}

		for _, col := range t.Frame.Names() {
			if col == key {
				continue
			}
			if owner, exists := seenColumns[col]; exists {
				return dataframe.DataFrame{}, fmt.Errorf("column %s in modules %s and %s: %w",
					col, owner, t.Name, ErrColumnCollision)
			}
			seenColumns[col] = t.Name
		}
	}

	merged := tables[0].Frame
	for _, t := range tables[1:] {
		merged = merged.OuterJoin(t.Frame, key)
		if merged.Err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("outer join with module %s failed: %w", t.Name, merged.Err)
		}
	}

	return merged, nil
}

// firstDuplicate returns the first repeated value in vals, or "" when all
// values are distinct.
func firstDuplicate(vals []string) string {
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		if _, ok := seen[v]; ok {
			return v
		}
		seen[v] = struct{}{}
	}
	return ""
}
