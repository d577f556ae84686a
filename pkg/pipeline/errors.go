package pipeline

import "errors"

// Schema violations indicate a broken precondition rather than a
// data-quality issue; the pipeline halts on them rather than tolerating
// partial output.
var (
	// ErrMissingKey is returned when a module table lacks the respondent
	// identifier column.
	ErrMissingKey = errors.New("module table missing respondent identifier column")

	// ErrDuplicateKey is returned when a module table carries the same
	// respondent identifier on more than one row, making the join ambiguous.
	ErrDuplicateKey = errors.New("duplicate respondent identifier within module table")

	// ErrColumnCollision is returned when two module tables share a non-key
	// column name, which an outer join would silently overwrite.
	ErrColumnCollision = errors.New("non-key column name collision across module tables")

	// ErrRenameCollision is returned when two source columns would map to
	// the same output label.
	ErrRenameCollision = errors.New("rename map produces colliding column labels")

	// ErrNoModules is returned when the merger receives no module tables.
	ErrNoModules = errors.New("no module tables to merge")
)
