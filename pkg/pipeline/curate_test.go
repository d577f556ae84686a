package pipeline

import (
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCurator_DropAndRename verifies drop happens before rename, absent
// drop names are skipped silently, and absent rename keys are no-ops.
func TestCurator_DropAndRename(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"1"}, series.String, "SEQN"),
		series.New([]float64{55}, series.Float, "RIAGENDR"),
		series.New([]float64{1}, series.Float, "WTINT2YR"),
	)

	curator := Curator{
		DropList: []string{"WTINT2YR", "NOT_PRESENT"},
		RenameMap: map[string]string{
			"RIAGENDR": "Gender",
			"ABSENT":   "Ignored label",
		},
	}

	out, err := curator.Apply(df)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"SEQN", "Gender"}, out.Names())
}

// TestCurator_RenameCollision verifies two source columns mapping to the
// same label is a contract violation naming the collision.
func TestCurator_RenameCollision(t *testing.T) {
	df := dataframe.New(
		series.New([]float64{1}, series.Float, "COL_A"),
		series.New([]float64{2}, series.Float, "COL_B"),
	)

	curator := Curator{
		RenameMap: map[string]string{
			"COL_A": "Label",
			"COL_B": "Label",
		},
	}

	_, err := curator.Apply(df)
	assert.ErrorIs(t, err, ErrRenameCollision)
	assert.Contains(t, err.Error(), "Label")
}

// TestCurator_RenameShadowsExisting verifies renaming onto a column that
// already exists (and is not itself renamed away) is rejected.
func TestCurator_RenameShadowsExisting(t *testing.T) {
	df := dataframe.New(
		series.New([]float64{1}, series.Float, "COL_A"),
		series.New([]float64{2}, series.Float, "Gender"),
	)

	curator := Curator{
		RenameMap: map[string]string{"COL_A": "Gender"},
	}

	_, err := curator.Apply(df)
	assert.ErrorIs(t, err, ErrRenameCollision)
}

// TestCurator_ChainedRenameRejected verifies that renaming onto a name
// freed by another rename is still rejected: renames apply sequentially,
// so the result would depend on application order.
func TestCurator_ChainedRenameRejected(t *testing.T) {
	df := dataframe.New(
		series.New([]float64{1}, series.Float, "COL_A"),
		series.New([]float64{2}, series.Float, "COL_B"),
	)

	curator := Curator{
		RenameMap: map[string]string{
			"COL_A": "COL_B",
			"COL_B": "COL_C",
		},
	}

	_, err := curator.Apply(df)
	assert.ErrorIs(t, err, ErrRenameCollision)
}

// TestDefaultRenameMap_Injective verifies the study's curated rename map
// has no duplicate labels.
func TestDefaultRenameMap_Injective(t *testing.T) {
	seen := make(map[string]string)
	for raw, label := range DefaultRenameMap {
		prev, dup := seen[label]
		assert.Falsef(t, dup, "label %q mapped from both %s and %s", label, prev, raw)
		seen[label] = raw
	}
}
