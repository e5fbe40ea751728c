package restore

import (
	"github.com/metasync-tools/metasync/internal/content"
	"github.com/metasync-tools/metasync/internal/metabase"
)

// EncodeLayout turns a dashboard's archived placements into the bulk update
// payload the target instance expects. Each new placement gets a distinct
// negative placeholder id (-1, -2, ...), the endpoint's convention for
// "create and assign a real id". A placement whose target placement id is
// already known (knownPlacements, keyed by source placement id) keeps it and
// is updated in place.
//
// cardIDs translates source card ids to target ids. Placements whose card
// never made it into the mapping are dropped and counted, not failed: the
// card was not part of the archive.
func EncodeLayout(dashcards []content.Dashcard, cardIDs map[int64]int64, knownPlacements map[int64]int64) (payload []metabase.DashcardPayload, skipped int) {
	placeholder := int64(0)
	for _, dc := range dashcards {
		entry := metabase.DashcardPayload{
			Row:                   dc.Row,
			Col:                   dc.Col,
			SizeX:                 dc.SizeX,
			SizeY:                 dc.SizeY,
			VisualizationSettings: dc.VisualizationSettings,
			ParameterMappings:     dc.ParameterMappings,
		}
		if entry.VisualizationSettings == nil {
			entry.VisualizationSettings = map[string]any{}
		}
		if entry.ParameterMappings == nil {
			entry.ParameterMappings = []any{}
		}
		if dc.CardID != nil {
			target, ok := cardIDs[*dc.CardID]
			if !ok {
				skipped++
				continue
			}
			entry.CardID = &target
		}
		if known, ok := knownPlacements[dc.ID]; ok {
			entry.ID = known
		} else {
			placeholder--
			entry.ID = placeholder
		}
		payload = append(payload, entry)
	}
	return payload, skipped
}
