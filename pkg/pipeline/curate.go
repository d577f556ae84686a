package pipeline

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
)

// Curator drops irrelevant columns and renames the remainder to
// human-readable labels. Drops happen before renames; drop-list names
// absent from the table are silently skipped, and rename keys absent from
// the table are no-ops. The rename is irreversible: raw identifiers do not
// survive into the output schema.
type Curator struct {
	DropList  []string
	RenameMap map[string]string
}

// Name implements Stage.
func (c Curator) Name() string { return "column_curator" }

// Apply implements Stage.
func (c Curator) Apply(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	// Drop before rename, skipping names the table does not have.
	present := make([]string, 0, len(c.DropList))
	for _, col := range c.DropList {
		if hasColumn(df, col) {
			present = append(present, col)
		}
	}
	if len(present) > 0 {
		df = df.Drop(present)
		if df.Err != nil {
			return df, fmt.Errorf("column drop failed: %w", df.Err)
		}
	}

	if err := c.checkRenameCollisions(df); err != nil {
		return df, err
	}

	for old, label := range c.RenameMap {
		if !hasColumn(df, old) {
			continue
		}
		df = df.Rename(label, old)
		if df.Err != nil {
			return df, fmt.Errorf("rename %s -> %s failed: %w", old, label, df.Err)
		}
	}

	return df, nil
}

// checkRenameCollisions verifies the rename map is injective over the
// columns actually present: no two source columns may map to the same
// label, and a label may not shadow any existing column. Renames apply
// sequentially, so even a label freed by another rename is rejected; the
// outcome would depend on application order.
func (c Curator) checkRenameCollisions(df dataframe.DataFrame) error {
	targets := make(map[string]string)
	for old, label := range c.RenameMap {
		if !hasColumn(df, old) {
			continue
		}
		if prev, ok := targets[label]; ok {
			return fmt.Errorf("columns %s and %s both map to %q: %w", prev, old, label, ErrRenameCollision)
		}
		targets[label] = old
	}

	for _, col := range df.Names() {
		if src, ok := targets[col]; ok && src != col {
			return fmt.Errorf("renaming %s to %q shadows an existing column: %w", src, col, ErrRenameCollision)
		}
	}

	return nil
}
