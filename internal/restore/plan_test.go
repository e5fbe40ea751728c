package restore

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metasync-tools/metasync/internal/archive"
	"github.com/metasync-tools/metasync/internal/content"
)

func queryCard(id int64, name string, sourceTable any) content.Card {
	return content.Card{
		ID:      id,
		Name:    name,
		Display: "table",
		DatasetQuery: map[string]any{
			"database": float64(2),
			"type":     "query",
			"query":    map[string]any{"source-table": sourceTable},
		},
	}
}

func cardRef(id int64) string { return fmt.Sprintf("card__%d", id) }

func indexOf(t *testing.T, order []int64, id int64) int {
	t.Helper()
	for i, v := range order {
		if v == id {
			return i
		}
	}
	t.Fatalf("id %d not in order %v", id, order)
	return -1
}

func TestNewPlan(t *testing.T) {
	t.Run("dependency restored before dependent", func(t *testing.T) {
		a := archive.New([]content.Card{
			queryCard(11, "B", cardRef(10)),
			queryCard(10, "A", float64(3)),
		}, nil, "")
		plan, err := NewPlan(a)
		require.NoError(t, err)
		assert.Equal(t, []int64{10, 11}, plan.CardOrder)
	})

	t.Run("independent cards ordered by ascending id", func(t *testing.T) {
		a := archive.New([]content.Card{
			queryCard(30, "c", float64(3)),
			queryCard(10, "a", float64(3)),
			queryCard(20, "b", float64(3)),
		}, nil, "")
		plan, err := NewPlan(a)
		require.NoError(t, err)
		assert.Equal(t, []int64{10, 20, 30}, plan.CardOrder)
	})

	t.Run("chain of depth five keeps transitive order", func(t *testing.T) {
		cards := []content.Card{queryCard(5, "base", float64(3))}
		for i := int64(4); i >= 1; i-- {
			cards = append(cards, queryCard(i, fmt.Sprintf("layer %d", i), cardRef(i+1)))
		}
		a := archive.New(cards, nil, "")
		plan, err := NewPlan(a)
		require.NoError(t, err)
		assert.Equal(t, []int64{5, 4, 3, 2, 1}, plan.CardOrder)
	})

	t.Run("diamond of dependents stays after the shared base", func(t *testing.T) {
		a := archive.New([]content.Card{
			queryCard(1, "base", float64(3)),
			queryCard(9, "left", cardRef(1)),
			queryCard(4, "right", cardRef(1)),
		}, nil, "")
		plan, err := NewPlan(a)
		require.NoError(t, err)
		base := indexOf(t, plan.CardOrder, 1)
		assert.Less(t, base, indexOf(t, plan.CardOrder, 9))
		assert.Less(t, base, indexOf(t, plan.CardOrder, 4))
		assert.Less(t, indexOf(t, plan.CardOrder, 4), indexOf(t, plan.CardOrder, 9),
			"independent siblings ordered by ascending id")
	})

	t.Run("dangling reference", func(t *testing.T) {
		a := archive.New([]content.Card{queryCard(3, "C", cardRef(99))}, nil, "")
		_, err := NewPlan(a)
		var dangling *DanglingReferenceError
		require.ErrorAs(t, err, &dangling)
		assert.Equal(t, int64(3), dangling.CardID)
		assert.Equal(t, int64(99), dangling.MissingID)
	})

	t.Run("cycle names only its members", func(t *testing.T) {
		a := archive.New([]content.Card{
			queryCard(1, "q1", cardRef(2)),
			queryCard(2, "q2", cardRef(1)),
			queryCard(3, "downstream", cardRef(1)),
		}, nil, "")
		_, err := NewPlan(a)
		var cyclic *CyclicDependencyError
		require.ErrorAs(t, err, &cyclic)
		assert.Equal(t, []int64{1, 2}, cyclic.Members)
	})

	t.Run("dashboards kept in archive order", func(t *testing.T) {
		a := archive.New(nil, []content.Dashboard{
			{ID: 2, Name: "second"},
			{ID: 1, Name: "first"},
		}, "")
		plan, err := NewPlan(a)
		require.NoError(t, err)
		require.Len(t, plan.Dashboards, 2)
		assert.Equal(t, int64(2), plan.Dashboards[0].ID)
	})
}
