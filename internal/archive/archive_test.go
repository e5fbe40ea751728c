package archive

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func roundTrip(t *testing.T, a *Archive) *Archive {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backup.zip")
	require.NoError(t, Write(path, a))
	out, err := Read(path)
	require.NoError(t, err)
	return out
}

func TestRoundTrip(t *testing.T) {
	t.Run("empty archive", func(t *testing.T) {
		a := New(nil, nil, "v0.50.1")
		out := roundTrip(t, a)
		assert.Equal(t, a, out)
	})

	t.Run("single card and dashboard", func(t *testing.T) {
		card := queryCard(10, "Revenue", float64(3))
		card.Description = "monthly revenue"
		card.VisualizationSettings = map[string]any{"graph.show_values": true}
		cid := int64(10)
		dash := content.Dashboard{
			ID: 5, Name: "Ops", Description: "ops overview",
			Dashcards: []content.Dashcard{{
				ID: 77, CardID: &cid, Row: 0, Col: 4, SizeX: 8, SizeY: 6,
				VisualizationSettings: map[string]any{"title": "rev"},
				ParameterMappings:     []any{map[string]any{"parameter_id": "abc"}},
			}},
		}
		a := New([]content.Card{card}, []content.Dashboard{dash}, "v0.50.1")
		out := roundTrip(t, a)
		assert.Equal(t, a, out)
	})

	t.Run("dependency chain of depth five", func(t *testing.T) {
		cards := []content.Card{queryCard(1, "base", float64(3))}
		for i := int64(2); i <= 5; i++ {
			cards = append(cards, queryCard(i, fmt.Sprintf("layer %d", i), cardRef(i-1)))
		}
		a := New(cards, nil, "")
		out := roundTrip(t, a)
		assert.Equal(t, a, out)

		ref, ok, err := out.Cards[4].SourceCardRef()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(4), ref)
	})
}

func TestValidate(t *testing.T) {
	t.Run("duplicate card id", func(t *testing.T) {
		a := New([]content.Card{queryCard(1, "a", float64(3)), queryCard(1, "b", float64(3))}, nil, "")
		var verr *content.ValidationError
		require.ErrorAs(t, a.Validate(), &verr)
		assert.Equal(t, "card", verr.Kind)
	})

	t.Run("card referencing a card outside the archive", func(t *testing.T) {
		a := New([]content.Card{queryCard(2, "orphan", cardRef(99))}, nil, "")
		var verr *content.ValidationError
		require.ErrorAs(t, a.Validate(), &verr)
		assert.Contains(t, verr.Reason, "99")
	})

	t.Run("dashboard referencing a card outside the archive", func(t *testing.T) {
		missing := int64(42)
		a := New(nil, []content.Dashboard{{
			ID: 1, Name: "Ops",
			Dashcards: []content.Dashcard{{ID: 1, CardID: &missing}},
		}}, "")
		var verr *content.ValidationError
		require.ErrorAs(t, a.Validate(), &verr)
		assert.Equal(t, "dashboard", verr.Kind)
		assert.Contains(t, verr.Reason, "42")
	})

	t.Run("valid archive", func(t *testing.T) {
		cid := int64(1)
		a := New(
			[]content.Card{queryCard(1, "base", float64(3)), queryCard(2, "derived", cardRef(1))},
			[]content.Dashboard{{ID: 1, Name: "Ops", Dashcards: []content.Dashcard{{ID: 1, CardID: &cid}}}},
			"",
		)
		require.NoError(t, a.Validate())
	})
}

func TestReadRejectsUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.zip")
	a := New(nil, nil, "")
	a.Manifest.FormatVersion = 99
	require.NoError(t, Write(path, a))

	_, err := Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format version 99")
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.zip"))
	require.Error(t, err)
}
