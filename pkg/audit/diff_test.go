package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Total  float64  `json:"total"`
	Tags   []string `json:"tags,omitempty"`
}

func TestDiff(t *testing.T) {
	t.Run("detects changed fields", func(t *testing.T) {
		changes, err := Diff(
			order{ID: "42", Status: "pending", Total: 99.5},
			order{ID: "42", Status: "shipped", Total: 99.5},
		)

		require.NoError(t, err)
		require.Len(t, changes, 1)
		assert.Equal(t, "pending", changes["status"].Old)
		assert.Equal(t, "shipped", changes["status"].New)
	})

	t.Run("identical states yield no changes", func(t *testing.T) {
		changes, err := Diff(
			order{ID: "42", Status: "pending"},
			order{ID: "42", Status: "pending"},
		)

		require.NoError(t, err)
		assert.Empty(t, changes)
	})

	t.Run("added and removed fields diff against nil", func(t *testing.T) {
		changes, err := Diff(
			map[string]any{"a": 1, "b": 2},
			map[string]any{"b": 2, "c": 3},
		)

		require.NoError(t, err)
		require.Len(t, changes, 2)
		assert.Nil(t, changes["a"].New)
		assert.Nil(t, changes["c"].Old)
	})

	t.Run("compares nested values", func(t *testing.T) {
		changes, err := Diff(
			order{ID: "42", Tags: []string{"priority"}},
			order{ID: "42", Tags: []string{"priority", "fragile"}},
		)

		require.NoError(t, err)
		require.Len(t, changes, 1)
		assert.Contains(t, changes, "tags")
	})

	t.Run("rejects unserializable entities", func(t *testing.T) {
		_, err := Diff(order{}, func() {})
		assert.Error(t, err)
	})
}
